package usecase

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/modules/access"
	"github.com/urbandao/urbandao/internal/modules/grievance"
	"github.com/urbandao/urbandao/internal/modules/project"
	"github.com/urbandao/urbandao/internal/urban"
)

// Entity kinds accepted by ShowEntity.
const (
	KindAssessment = "assessment"
	KindReceipt    = "receipt"
	KindGrievance  = "grievance"
	KindProject    = "project"
	KindProposal   = "proposal"
	KindArea       = "area"
	KindRequest    = "request"
)

var entityKinds = []string{KindAssessment, KindReceipt, KindGrievance, KindProject, KindProposal, KindArea, KindRequest}

// ShowEntity reads one stored entity by kind and id
type ShowEntity struct {
	engine *Engine
}

// NewShowEntity creates a new show use case
func NewShowEntity(engine *Engine) *ShowEntity {
	return &ShowEntity{engine: engine}
}

// EntityResult wraps the entity found. Exactly one field is set.
type EntityResult struct {
	Kind       string
	Assessment *models.TaxAssessment
	Receipt    *models.TaxReceipt
	ReceiptURI string
	Grievance  *models.Grievance
	Project    *models.Project
	Proposal   *models.Proposal
	Area       *models.Area
	Citizens   []common.Address
	Request    *models.RoleRequest
	// ProposalStatus is the derived status at query time
	ProposalStatus models.ProposalStatus
	// AssessmentStatus is the derived status at query time
	AssessmentStatus models.AssessmentStatus
}

// Execute looks up the entity
func (s *ShowEntity) Execute(ctx context.Context, kind string, id uint64) (*EntityResult, error) {
	kind = strings.ToLower(kind)
	sys, err := s.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	now := s.engine.Now()
	res := &EntityResult{Kind: kind}

	switch kind {
	case KindAssessment:
		if res.Assessment, err = sys.States.Tax.Assessment(id); err == nil {
			res.AssessmentStatus = res.Assessment.StatusAt(now)
		}
	case KindReceipt:
		var r models.TaxReceipt
		if r, err = sys.States.Receipt.Receipt(id); err == nil {
			res.Receipt = &r
			res.ReceiptURI, err = sys.States.Receipt.TokenURI(id)
		}
	case KindGrievance:
		res.Grievance, err = sys.States.Grievance.Grievance(id)
	case KindProject:
		res.Project, err = sys.States.Project.Project(id)
	case KindProposal:
		if res.Proposal, err = sys.States.Governor.Proposal(id); err == nil {
			res.ProposalStatus, err = sys.States.Governor.StateOf(id, now)
		}
	case KindArea:
		if res.Area, err = sys.States.Access.Area(id); err == nil {
			res.Citizens = sys.States.Access.AreaCitizens(id)
		}
	case KindRequest:
		res.Request, err = sys.States.Access.Request(id)
	default:
		return nil, unknownKind(kind)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func unknownKind(kind string) error {
	if matches := fuzzy.Find(kind, entityKinds); len(matches) > 0 {
		return fmt.Errorf("%w: unknown entity kind %q, did you mean %q?", domain.ErrInvalidInput, kind, matches[0].Str)
	}
	return fmt.Errorf("%w: unknown entity kind %q (one of %s)", domain.ErrInvalidInput, kind, strings.Join(entityKinds, ", "))
}

// ListEntities lists entities of one kind
type ListEntities struct {
	engine *Engine
}

// NewListEntities creates a new list use case
func NewListEntities(engine *Engine) *ListEntities {
	return &ListEntities{engine: engine}
}

// ListEntitiesParams filters the listing. Zero fields match everything.
type ListEntitiesParams struct {
	Kind    string
	Account common.Address
	Status  string
	AreaID  uint64
}

// ListEntitiesResult holds the listing for the requested kind
type ListEntitiesResult struct {
	Kind        string
	Grievances  []*models.Grievance
	Projects    []*models.Project
	Assessments []*models.TaxAssessment
	Proposals   []*models.Proposal
	Statuses    map[uint64]models.ProposalStatus
	Areas       []*models.Area
	Requests    []*models.RoleRequest
}

// Execute runs the listing
func (l *ListEntities) Execute(ctx context.Context, params ListEntitiesParams) (*ListEntitiesResult, error) {
	sys, err := l.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	res := &ListEntitiesResult{Kind: strings.ToLower(params.Kind)}
	switch res.Kind {
	case KindGrievance:
		res.Grievances = sys.States.Grievance.List(grievance.Filter{
			Filer:  params.Account,
			Status: models.GrievanceStatus(params.Status),
			AreaID: params.AreaID,
		})
	case KindProject:
		res.Projects = sys.States.Project.List(project.Filter{
			Manager: params.Account,
			Status:  models.ProjectStatus(params.Status),
			AreaID:  params.AreaID,
		})
	case KindAssessment:
		if params.Account == (common.Address{}) {
			return nil, fmt.Errorf("%w: listing assessments needs an account", domain.ErrInvalidInput)
		}
		res.Assessments = sys.States.Tax.AssessmentsOf(params.Account)
	case KindProposal:
		now := l.engine.Now()
		res.Statuses = make(map[uint64]models.ProposalStatus)
		for _, p := range sys.States.Governor.List() {
			st, err := sys.States.Governor.StateOf(p.ID, now)
			if err != nil {
				return nil, err
			}
			if params.Status != "" && string(st) != params.Status {
				continue
			}
			res.Proposals = append(res.Proposals, p)
			res.Statuses[p.ID] = st
		}
	case KindArea:
		res.Areas = sys.States.Access.AreaList()
	case KindRequest:
		res.Requests = sys.States.Access.RequestList(access.RequestFilter{
			Requester: params.Account,
			Status:    models.RequestStatus(params.Status),
			AreaID:    params.AreaID,
		})
	default:
		return nil, unknownKind(res.Kind)
	}
	return res, nil
}

// ShowAccount summarizes what one account holds
type ShowAccount struct {
	engine *Engine
}

// NewShowAccount creates a new account use case
func NewShowAccount(engine *Engine) *ShowAccount {
	return &ShowAccount{engine: engine}
}

// AccountResult is an account summary
type AccountResult struct {
	Address     common.Address
	Balance     *big.Int
	Roles       []domain.Role
	Receipts    []models.TaxReceipt
	Assessments []*models.TaxAssessment
	Nonce       uint64
	AreaID      uint64
	Validator   *grievance.ValidatorStats
}

// Execute builds the summary
func (s *ShowAccount) Execute(ctx context.Context, account common.Address) (*AccountResult, error) {
	sys, err := s.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	res := &AccountResult{
		Address:     account,
		Balance:     sys.States.Token.BalanceOf(account),
		Roles:       sys.States.Access.RolesOf(account),
		Receipts:    sys.States.Receipt.ReceiptsOf(account),
		Assessments: sys.States.Tax.AssessmentsOf(account),
		Nonce:       sys.Forwarder.NonceOf(account),
	}
	if a, ok := sys.States.Access.Accounts[account]; ok {
		res.AreaID = a.AreaID
	}
	if sys.States.Access.HasRole(account, domain.RoleValidator) {
		st := sys.States.Grievance.ValidatorStats(account)
		res.Validator = &st
	}
	return res, nil
}

// ListRoleHolders lists the accounts holding a role
type ListRoleHolders struct {
	engine *Engine
}

// NewListRoleHolders creates a new role listing use case
func NewListRoleHolders(engine *Engine) *ListRoleHolders {
	return &ListRoleHolders{engine: engine}
}

// RoleHolders groups holders by role
type RoleHolders struct {
	Role    domain.Role
	Holders []common.Address
}

// Execute lists holders of role, or of every role when role is empty
func (l *ListRoleHolders) Execute(ctx context.Context, role string) ([]RoleHolders, error) {
	roles := domain.AllRoles
	if role != "" {
		r, err := domain.ParseRole(role)
		if err != nil {
			return nil, err
		}
		roles = []domain.Role{r}
	}
	sys, err := l.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoleHolders, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleHolders{Role: r, Holders: sys.States.Access.Holders(r)})
	}
	return out, nil
}

// ShowStatus summarizes the whole deployment
type ShowStatus struct {
	engine *Engine
}

// NewShowStatus creates a new status use case
func NewShowStatus(engine *Engine) *ShowStatus {
	return &ShowStatus{engine: engine}
}

// StatusResult is the deployment overview
type StatusResult struct {
	Deployment      urban.Deployment
	Executor        common.Address
	DomainSeparator common.Hash
	Modules         []models.ModuleInfo
	Supply          *big.Int
	Treasury        *big.Int
	Reserved        *big.Int
	Collected       *big.Int
	Assessments     map[models.AssessmentStatus]int
	Grievances      int
	Projects        int
	Proposals       int
	Receipts        int
	Areas           int
	Citizens        int
	PendingRequests int
	Seq             uint64
}

// Execute builds the overview
func (s *ShowStatus) Execute(ctx context.Context) (*StatusResult, error) {
	sys, err := s.engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	sep, err := sys.Forwarder.DomainSeparator()
	if err != nil {
		return nil, err
	}
	st := sys.States
	return &StatusResult{
		Deployment:      st.Deployment,
		Executor:        sys.Governor.Executor(),
		DomainSeparator: sep,
		Modules:         sys.Core.Modules(),
		Supply:          st.Token.TotalSupply(),
		Treasury:        sys.Treasury(),
		Reserved:        st.Project.TotalReserved(),
		Collected:       st.Tax.TotalCollected(),
		Assessments:     st.Tax.CountByStatus(s.engine.Now()),
		Grievances:      len(st.Grievance.Grievances),
		Projects:        len(st.Project.Projects),
		Proposals:       len(st.Governor.List()),
		Receipts:        st.Receipt.Count(),
		Areas:           len(st.Access.Areas),
		Citizens:        st.Access.ApprovedCitizens(),
		PendingRequests: len(st.Access.RequestList(access.RequestFilter{Status: models.RequestPending})),
		Seq:             sys.Core.Seq(),
	}, nil
}

// ListEvents reads the stored event stream
type ListEvents struct {
	events EventStore
}

// NewListEvents creates a new event listing use case
func NewListEvents(events EventStore) *ListEvents {
	return &ListEvents{events: events}
}

// Execute lists events matching filter, oldest first
func (l *ListEvents) Execute(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	return l.events.List(ctx, filter)
}
