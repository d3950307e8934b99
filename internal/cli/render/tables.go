package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/usecase"
)

// RenderInit prints the outcome of genesis
func RenderInit(out io.Writer, res *usecase.InitResult, statePath string) {
	fmt.Fprintln(out, FormatSuccess("System initialized"))
	field(out, "State", statePath)
	field(out, "Chain ID", res.Deployment.ChainID)
	field(out, "Admin", Address(res.Deployment.Admin))
	field(out, "Treasury", Address(res.Deployment.Treasury))
	field(out, "Executor", Address(res.Executor))
	field(out, "Grants", res.Grants)
	field(out, "Areas", res.Areas)
	field(out, "Mints", res.Mints)
	field(out, "Events", res.Events)
	fmt.Fprintln(out)
	RenderModules(out, res.Modules, nil)
}

// RenderModules prints live module pointers. When impls is given, the
// installed implementations are listed under it.
func RenderModules(out io.Writer, live []models.ModuleInfo, impls []models.ModuleInfo) {
	section(out, "Modules")
	t := newTable(out, "Module", "Version", "Implementation", "Address")
	for _, m := range live {
		t.AppendRow([]interface{}{m.ID, m.Version, Address(m.Implementation), mutedStyle.Sprint(core.ModuleAddress(m.ID).Hex())})
	}
	t.Render()

	if len(impls) == 0 {
		return
	}
	liveImpl := lo.SliceToMap(live, func(m models.ModuleInfo) (string, common.Address) { return m.ID, m.Implementation })
	fmt.Fprintln(out)
	section(out, "Implementations")
	t = newTable(out, "Module", "Version", "Implementation", "")
	for _, m := range impls {
		mark := ""
		if liveImpl[m.ID] == m.Implementation {
			mark = okStyle.Sprint("live")
		}
		t.AppendRow([]interface{}{m.ID, m.Version, Address(m.Implementation), mark})
	}
	t.Render()
}

// RenderRegister prints a module pointer switch
func RenderRegister(out io.Writer, res *usecase.RegisterModuleResult) {
	if res.Skipped {
		fmt.Fprintln(out, FormatWarning(fmt.Sprintf("Registration of %s skipped", res.Module)))
		return
	}
	fmt.Fprintln(out, FormatSuccess(fmt.Sprintf("Module %s registered", res.Module)))
	field(out, "Previous", Address(res.Previous))
	field(out, "Current", Address(res.Current))
}

// RenderRoleHolders prints holders grouped by role
func RenderRoleHolders(out io.Writer, groups []usecase.RoleHolders) {
	t := newTable(out, "Role", "Holder")
	rows := 0
	for _, g := range groups {
		for _, h := range g.Holders {
			t.AppendRow([]interface{}{g.Role.String(), Address(h)})
			rows++
		}
	}
	if rows == 0 {
		empty(out, "role holders")
		return
	}
	t.Render()
}

// RenderEventTable prints stored events
func RenderEventTable(out io.Writer, events []domain.Event) {
	if len(events) == 0 {
		empty(out, "events")
		return
	}
	t := newTable(out, "Seq", "Time", "Type", "Entity", "Change", "Actor", "Data")
	for _, ev := range events {
		change := ""
		if ev.Transition() {
			change = fmt.Sprintf("%s → %s", lo.Ternary(ev.From == "", "-", ev.From), lo.Ternary(ev.To == "", "-", ev.To))
		}
		t.AppendRow([]interface{}{ev.Seq, Time(ev.At), string(ev.Type),
			fmt.Sprintf("%s#%d", ev.Module, ev.EntityID), change, Address(ev.Actor), formatData(ev.Data)})
	}
	t.Render()
}

func formatData(data map[string]string) string {
	if len(data) == 0 {
		return ""
	}
	keys := lo.Keys(data)
	sort.Strings(keys)
	return strings.Join(lo.Map(keys, func(k string, _ int) string { return k + "=" + data[k] }), " ")
}

// RenderAccount prints an account summary
func RenderAccount(out io.Writer, res *usecase.AccountResult) {
	section(out, "Account "+res.Address.Hex())
	field(out, "Balance", Amount(res.Balance))
	roles := lo.Map(res.Roles, func(r domain.Role, _ int) string { return r.String() })
	field(out, "Roles", lo.Ternary(len(roles) == 0, mutedStyle.Sprint("-"), strings.Join(roles, ", ")))
	field(out, "Relay nonce", res.Nonce)
	if res.AreaID != 0 {
		field(out, "Area", res.AreaID)
	}
	if res.Validator != nil {
		field(out, "Reviews", fmt.Sprintf("%d assigned, %d validated, %d rejected",
			res.Validator.Assigned, res.Validator.Validated, res.Validator.Rejected))
	}

	if len(res.Assessments) > 0 {
		fmt.Fprintln(out)
		section(out, "Assessments")
		t := newTable(out, "ID", "Year", "Status", "Amount", "Due")
		for _, a := range res.Assessments {
			t.AppendRow([]interface{}{a.ID, a.Year, Status(string(a.Status)), Amount(a.AmountDue), Time(a.DueDate)})
		}
		t.Render()
	}

	if len(res.Receipts) > 0 {
		fmt.Fprintln(out)
		section(out, "Receipts")
		t := newTable(out, "ID", "Assessment", "Minted")
		for _, r := range res.Receipts {
			t.AppendRow([]interface{}{r.ID, r.AssessmentID, Time(r.MintedAt)})
		}
		t.Render()
	}
}

// RenderStatus prints the deployment overview
func RenderStatus(out io.Writer, res *usecase.StatusResult) {
	section(out, "Deployment")
	field(out, "Chain ID", res.Deployment.ChainID)
	field(out, "Admin", Address(res.Deployment.Admin))
	field(out, "Treasury", Address(res.Deployment.Treasury))
	field(out, "Executor", Address(res.Executor))
	field(out, "Domain", mutedStyle.Sprint(res.DomainSeparator.Hex()))
	for _, r := range res.Deployment.Relayers {
		field(out, "Relayer", Address(r))
	}

	fmt.Fprintln(out)
	section(out, "Funds")
	field(out, "Supply", Amount(res.Supply))
	field(out, "Treasury", Amount(res.Treasury))
	field(out, "Reserved", Amount(res.Reserved))
	field(out, "Tax collected", Amount(res.Collected))

	fmt.Fprintln(out)
	section(out, "Records")
	statuses := lo.Keys(res.Assessments)
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	parts := lo.Map(statuses, func(s models.AssessmentStatus, _ int) string {
		return fmt.Sprintf("%d %s", res.Assessments[s], s)
	})
	field(out, "Assessments", lo.Ternary(len(parts) == 0, "0", strings.Join(parts, ", ")))
	field(out, "Receipts", res.Receipts)
	field(out, "Grievances", res.Grievances)
	field(out, "Projects", res.Projects)
	field(out, "Proposals", res.Proposals)
	field(out, "Areas", res.Areas)
	field(out, "Citizens", fmt.Sprintf("%d approved, %d requests pending", res.Citizens, res.PendingRequests))
	field(out, "Events", res.Seq)

	fmt.Fprintln(out)
	RenderModules(out, res.Modules, nil)
}

// RenderSigned prints where a signed request was written
func RenderSigned(out io.Writer, req *models.SignedRequest, path string) {
	fmt.Fprintln(out, FormatSuccess("Request signed"))
	field(out, "Signer", Address(req.Request.From))
	field(out, "Module", req.Request.Module)
	field(out, "Nonce", req.Request.Nonce)
	field(out, "Deadline", req.Request.Deadline)
	if path != "" {
		field(out, "Written to", path)
	}
}

// RenderRelay prints the per-request results of a relay batch
func RenderRelay(out io.Writer, res *usecase.SubmitRelayResult) {
	t := newTable(out, "#", "Signer", "Nonce", "Result", "")
	for i, r := range res.Results {
		if r.Err != nil {
			t.AppendRow([]interface{}{i, Address(r.From), r.Nonce, failStyle.Sprint("failed"), r.Err.Error()})
			continue
		}
		id := ""
		if r.ResultID != 0 {
			id = fmt.Sprintf("id %d", r.ResultID)
		}
		t.AppendRow([]interface{}{i, Address(r.From), r.Nonce, okStyle.Sprint("ok"), id})
	}
	t.Render()

	summary := fmt.Sprintf("%d of %d requests relayed by %s", res.Succeeded(), len(res.Results), res.Relayer.Hex())
	if res.Succeeded() == len(res.Results) {
		fmt.Fprintln(out, FormatSuccess(summary))
	} else {
		fmt.Fprintln(out, FormatWarning(summary))
	}
}
