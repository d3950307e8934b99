package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/usecase"
)

// EntityRenderer prints single entities and entity lists
type EntityRenderer struct {
	out io.Writer
}

// NewEntityRenderer creates a new entity renderer
func NewEntityRenderer(out io.Writer) *EntityRenderer {
	return &EntityRenderer{out: out}
}

// Render prints whichever entity the result carries
func (r *EntityRenderer) Render(res *usecase.EntityResult) {
	switch {
	case res.Assessment != nil:
		r.assessment(res.Assessment, res.AssessmentStatus)
	case res.Receipt != nil:
		r.receipt(res.Receipt, res.ReceiptURI)
	case res.Grievance != nil:
		r.grievance(res.Grievance)
	case res.Project != nil:
		r.project(res.Project)
	case res.Proposal != nil:
		r.proposal(res.Proposal, res.ProposalStatus)
	case res.Area != nil:
		r.area(res.Area, res.Citizens)
	case res.Request != nil:
		r.request(res.Request)
	}
}

func (r *EntityRenderer) area(a *models.Area, citizens []common.Address) {
	section(r.out, fmt.Sprintf("Area #%d", a.ID))
	field(r.out, "Name", a.Name)
	field(r.out, "Admin head", Address(a.AdminHead))
	field(r.out, "Metadata", a.MetadataURI)
	field(r.out, "Created at", Time(a.CreatedAt))
	field(r.out, "Citizens", len(citizens))
	for _, c := range citizens {
		fmt.Fprintf(r.out, "  %s\n", Address(c))
	}
}

func (r *EntityRenderer) request(q *models.RoleRequest) {
	section(r.out, fmt.Sprintf("Role Request #%d", q.ID))
	field(r.out, "Status", Status(string(q.Status)))
	field(r.out, "Requester", Address(q.Requester))
	field(r.out, "Role", domain.Role(q.Role).Short())
	field(r.out, "Area", q.AreaID)
	field(r.out, "Metadata", q.MetadataURI)
	field(r.out, "Requested at", Time(q.RequestedAt))
	if q.Status != models.RequestPending {
		field(r.out, "Reviewer", Address(q.Reviewer))
		field(r.out, "Decided at", TimePtr(q.DecidedAt))
	}
	if q.Reason != "" {
		field(r.out, "Reason", q.Reason)
	}
}

func (r *EntityRenderer) assessment(a *models.TaxAssessment, status models.AssessmentStatus) {
	section(r.out, fmt.Sprintf("Tax Assessment #%d", a.ID))
	field(r.out, "Status", Status(string(status)))
	field(r.out, "Payer", Address(a.Payer))
	field(r.out, "Year", a.Year)
	field(r.out, "Amount due", Amount(a.AmountDue))
	field(r.out, "Due date", Time(a.DueDate))
	field(r.out, "Document", a.DocRef)
	field(r.out, "Assessed by", Address(a.AssessedBy))
	field(r.out, "Assessed at", Time(a.AssessedAt))
	field(r.out, "Settled at", TimePtr(a.SettledAt))
}

func (r *EntityRenderer) receipt(rc *models.TaxReceipt, uri string) {
	section(r.out, fmt.Sprintf("Tax Receipt #%d", rc.ID))
	field(r.out, "Owner", Address(rc.Owner))
	field(r.out, "Assessment", rc.AssessmentID)
	field(r.out, "Token URI", uri)
	field(r.out, "Minted at", Time(rc.MintedAt))
}

func (r *EntityRenderer) grievance(g *models.Grievance) {
	section(r.out, fmt.Sprintf("Grievance #%d: %s", g.ID, g.Title))
	field(r.out, "Status", Status(string(g.Status)))
	field(r.out, "Filer", Address(g.Filer))
	field(r.out, "Area", g.AreaID)
	field(r.out, "Description", g.DescriptionRef)
	field(r.out, "Validator", Address(g.Validator))
	if g.Feedback != "" {
		field(r.out, "Feedback", g.Feedback)
	}
	if g.ProjectID != 0 {
		field(r.out, "Project", g.ProjectID)
	}
	field(r.out, "Filed at", Time(g.FiledAt))
	field(r.out, "Review at", TimePtr(g.ReviewAt))
	field(r.out, "Decided at", TimePtr(g.DecidedAt))
	field(r.out, "Resolved at", TimePtr(g.ResolvedAt))

	if len(g.Comments) > 0 {
		fmt.Fprintln(r.out)
		section(r.out, "Comments")
		for _, c := range g.Comments {
			fmt.Fprintf(r.out, "  %s %s %s\n", Time(c.At), Address(c.Author), c.Ref)
		}
	}
}

func (r *EntityRenderer) project(p *models.Project) {
	section(r.out, fmt.Sprintf("Project #%d: %s", p.ID, p.Name))
	field(r.out, "Status", Status(string(p.Status)))
	field(r.out, "Manager", Address(p.Manager))
	field(r.out, "Area", p.AreaID)
	field(r.out, "Description", p.Description)
	field(r.out, "Metadata", p.MetadataCID)
	field(r.out, "Budget", Amount(p.Budget))
	field(r.out, "Allocated", Amount(p.Allocated))
	field(r.out, "Disbursed", Amount(p.Disbursed))
	field(r.out, "Upvotes", len(p.Upvoters))

	if len(p.Milestones) > 0 {
		fmt.Fprintln(r.out)
		section(r.out, "Milestones")
		t := newTable(r.out, "#", "Description", "Amount", "Deadline", "Done")
		for i, m := range p.Milestones {
			done := pendingStyle.Sprint("no")
			if m.Completed {
				done = okStyle.Sprint("yes")
			}
			t.AppendRow([]interface{}{i, m.Description, Amount(m.Amount), Time(m.Deadline), done})
		}
		t.Render()
	}

	if len(p.Feedback) > 0 {
		fmt.Fprintln(r.out)
		section(r.out, "Feedback")
		for _, fb := range p.Feedback {
			verdict := failStyle.Sprint("unsatisfied")
			if fb.Satisfied {
				verdict = okStyle.Sprint("satisfied")
			}
			fmt.Fprintf(r.out, "  %s %s %s\n", Address(fb.Citizen), verdict, fb.Ref)
		}
	}
}

func (r *EntityRenderer) proposal(p *models.Proposal, status models.ProposalStatus) {
	section(r.out, fmt.Sprintf("Proposal #%d", p.ID))
	field(r.out, "Status", Status(string(status)))
	field(r.out, "Proposer", Address(p.Proposer))
	field(r.out, "Description", p.Description)
	field(r.out, "Snapshot", Time(p.Snapshot))
	field(r.out, "Voting", fmt.Sprintf("%s → %s", Time(p.VoteStart), Time(p.VoteEnd)))
	field(r.out, "ETA", Time(p.ETA))
	field(r.out, "Quorum", Amount(p.Quorum))
	field(r.out, "For", Amount(p.ForVotes))
	field(r.out, "Against", Amount(p.AgainstVotes))
	field(r.out, "Abstain", Amount(p.AbstainVotes))

	fmt.Fprintln(r.out)
	section(r.out, "Actions")
	for i, a := range p.Actions {
		fmt.Fprintf(r.out, "  %d. %s %s\n", i+1, a.Module, mutedStyle.Sprint(a.Data.String()))
	}

	if len(p.Votes) > 0 {
		voters := make([]common.Address, 0, len(p.Votes))
		for v := range p.Votes {
			voters = append(voters, v)
		}
		sort.Slice(voters, func(i, j int) bool { return voters[i].Cmp(voters[j]) < 0 })

		fmt.Fprintln(r.out)
		section(r.out, "Votes")
		t := newTable(r.out, "Voter", "Support", "Weight")
		for _, v := range voters {
			vote := p.Votes[v]
			t.AppendRow([]interface{}{Address(v), vote.Support.String(), Amount(vote.Weight)})
		}
		t.Render()
	}
}

// RenderList prints a listing as a table
func (r *EntityRenderer) RenderList(res *usecase.ListEntitiesResult) {
	switch res.Kind {
	case usecase.KindGrievance:
		if len(res.Grievances) == 0 {
			empty(r.out, "grievances")
			return
		}
		t := newTable(r.out, "ID", "Status", "Area", "Title", "Filer", "Validator")
		for _, g := range res.Grievances {
			t.AppendRow([]interface{}{g.ID, Status(string(g.Status)), g.AreaID, g.Title, Address(g.Filer), Address(g.Validator)})
		}
		t.Render()

	case usecase.KindProject:
		if len(res.Projects) == 0 {
			empty(r.out, "projects")
			return
		}
		t := newTable(r.out, "ID", "Status", "Area", "Name", "Budget", "Disbursed", "Upvotes")
		for _, p := range res.Projects {
			t.AppendRow([]interface{}{p.ID, Status(string(p.Status)), p.AreaID, p.Name, Amount(p.Budget), Amount(p.Disbursed), len(p.Upvoters)})
		}
		t.Render()

	case usecase.KindAssessment:
		if len(res.Assessments) == 0 {
			empty(r.out, "assessments")
			return
		}
		t := newTable(r.out, "ID", "Year", "Status", "Amount", "Due", "Document")
		for _, a := range res.Assessments {
			t.AppendRow([]interface{}{a.ID, a.Year, Status(string(a.Status)), Amount(a.AmountDue), Time(a.DueDate), a.DocRef})
		}
		t.Render()

	case usecase.KindProposal:
		if len(res.Proposals) == 0 {
			empty(r.out, "proposals")
			return
		}
		t := newTable(r.out, "ID", "Status", "For", "Against", "Abstain", "Description")
		for _, p := range res.Proposals {
			t.AppendRow([]interface{}{p.ID, Status(string(res.Statuses[p.ID])), Amount(p.ForVotes),
				Amount(p.AgainstVotes), Amount(p.AbstainVotes), truncate(p.Description, 48)})
		}
		t.Render()

	case usecase.KindArea:
		if len(res.Areas) == 0 {
			empty(r.out, "areas")
			return
		}
		t := newTable(r.out, "ID", "Name", "Admin Head", "Created")
		for _, a := range res.Areas {
			t.AppendRow([]interface{}{a.ID, a.Name, Address(a.AdminHead), Time(a.CreatedAt)})
		}
		t.Render()

	case usecase.KindRequest:
		if len(res.Requests) == 0 {
			empty(r.out, "role requests")
			return
		}
		t := newTable(r.out, "ID", "Status", "Role", "Area", "Requester", "Requested")
		for _, q := range res.Requests {
			t.AppendRow([]interface{}{q.ID, Status(string(q.Status)), domain.Role(q.Role).Short(), q.AreaID,
				Address(q.Requester), Time(q.RequestedAt)})
		}
		t.Render()
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
