package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/config"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/terminal"
)

// consoleSignaler renders device signals on the terminal bell
type consoleSignaler struct{}

func (consoleSignaler) SuccessTone()          {}
func (consoleSignaler) ErrorTone()            { fmt.Print("\a") }
func (consoleSignaler) Vibrate(time.Duration) {}
func (consoleSignaler) Unlock()               {}

// filePrefs persists device preferences next to the binary
type filePrefs struct {
	path   string
	values map[string]string
}

func newFilePrefs(path string) *filePrefs {
	p := &filePrefs{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, "=")
		if found {
			p.values[key] = value
		}
	}
	return p
}

func (p *filePrefs) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *filePrefs) Set(key, value string) {
	p.values[key] = value
	var sb strings.Builder
	for k, v := range p.values {
		fmt.Fprintf(&sb, "%s=%s\n", k, v)
	}
	if err := os.WriteFile(p.path, []byte(sb.String()), 0644); err != nil {
		log.Printf("⚠️ Failed to persist preferences: %v", err)
	}
}

type app struct {
	client   *terminal.Client
	feedback *terminal.Feedback

	mode     string
	workflow *terminal.Workflow
	order    *terminal.OrderSession
	adhoc    *terminal.AdHocSession
	audit    *terminal.AuditSession
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Terminal.Token == "" {
		log.Fatal("API_TOKEN is required; log in via /auth/login and export the access token")
	}

	client := terminal.NewClient(cfg.Terminal.APIBaseURL, cfg.Terminal.Token)
	feedback := terminal.NewFeedback(consoleSignaler{}, newFilePrefs(".scanwms-prefs"))

	a := &app{
		client:   client,
		feedback: feedback,
		audit:    terminal.NewAuditSession(client, feedback),
	}

	// Hardware scans arrive over the gateway; typed codes via the prompt
	feed := terminal.NewScanFeed(cfg.Terminal.ScanFeedURL, func(code string) {
		a.handleScan(context.Background(), code)
		a.render()
	})
	if err := feed.Start(); err != nil {
		log.Printf("⚠️ Scan feed unavailable (%v); keyboard entry only", err)
	}
	defer feed.Stop()

	fmt.Println("scanwms terminal. Commands: mode <name>, scan <code>, qty <n>, next, confirm, reset, finish, quit")
	fmt.Println("Modes: move putaway replen pick count receive audit")

	scanner := bufio.NewScanner(os.Stdin)
	a.render()
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		ctx := context.Background()

		switch cmd {
		case "":
		case "quit", "exit":
			return
		case "mode":
			a.setMode(ctx, arg)
		case "scan":
			a.feedback.UnlockAudio()
			a.handleScan(ctx, arg)
		case "qty":
			a.setQty(arg)
		case "next":
			if a.workflow != nil {
				a.workflow.Next()
			}
		case "confirm":
			a.confirm(ctx)
		case "reset":
			a.reset()
		case "finish":
			if a.mode == "audit" {
				if err := a.audit.Finish(ctx); err != nil {
					fmt.Println("error:", err)
				}
			}
		case "signals":
			a.feedback.SetEnabled(arg != "off")
		default:
			fmt.Println("unknown command:", cmd)
		}
		a.render()
	}
}

// setMode switches the active operation, discarding any draft
func (a *app) setMode(ctx context.Context, name string) {
	a.reset()
	a.mode = name
	a.workflow = nil
	a.order = nil
	a.adhoc = nil

	switch name {
	case "move":
		a.workflow = terminal.NewMoveWorkflow(a.client, a.feedback)
	case "putaway":
		a.workflow = terminal.NewPutawayWorkflow(a.client, a.feedback)
	case "replen":
		a.workflow = terminal.NewReplenishWorkflow(a.client, a.feedback)
	case "pick":
		a.workflow = terminal.NewPickWorkflow(a.client, a.feedback)
	case "count":
		a.workflow = terminal.NewCountWorkflow(a.client, a.feedback)
	case "receive":
		orders, err := a.client.ListOpenOrders(ctx)
		if err != nil {
			fmt.Println("error:", err)
			a.mode = ""
			return
		}
		if len(orders) == 0 {
			fmt.Println("no open purchase orders; ad hoc receiving active")
			a.adhoc = terminal.NewAdHocSession(a.client, a.feedback)
			return
		}
		for _, o := range orders {
			fmt.Printf("  [%d] %s (%s)\n", o.ID, o.Name, o.SupplierName)
		}
		a.order = terminal.NewOrderSession(orders[0], a.client, a.feedback)
		fmt.Printf("receiving against %s\n", orders[0].Name)
	case "audit":
		if err := a.audit.Enter(ctx); err != nil {
			fmt.Println("error:", err)
			a.mode = ""
		}
	default:
		fmt.Println("unknown mode:", name)
		a.mode = ""
	}
}

func (a *app) handleScan(ctx context.Context, code string) {
	switch {
	case a.workflow != nil:
		a.workflow.HandleScan(ctx, code)
	case a.order != nil:
		a.order.HandleScan(ctx, code)
	case a.adhoc != nil:
		a.adhoc.HandleScan(ctx, code)
	case a.mode == "audit":
		if err := a.audit.HandleScan(ctx, code); err != nil {
			fmt.Println("error:", err)
		}
	}
}

// setQty routes a quantity entry to the active session.
// In audit mode the form is "qty <itemId> <n>".
func (a *app) setQty(arg string) {
	if a.workflow != nil {
		a.workflow.SetQty(arg)
		return
	}
	if a.mode == "audit" {
		itemArg, qtyArg, found := strings.Cut(arg, " ")
		if !found {
			fmt.Println("usage: qty <itemId> <count>")
			return
		}
		var itemID int64
		if _, err := fmt.Sscanf(itemArg, "%d", &itemID); err != nil {
			fmt.Println("usage: qty <itemId> <count>")
			return
		}
		a.audit.SetCounted(itemID, strings.TrimSpace(qtyArg))
	}
}

func (a *app) confirm(ctx context.Context) {
	var err error
	switch {
	case a.workflow != nil:
		err = a.workflow.Confirm(ctx)
	case a.order != nil:
		var act []byte
		act, err = a.order.Confirm(ctx, terminal.NewPrintFlow(a.client), a.collectProfile)
		if err == nil && len(act) > 0 {
			if writeErr := os.WriteFile("receive-act.pdf", act, 0644); writeErr == nil {
				fmt.Println("discrepancy act saved to receive-act.pdf")
			}
		}
	case a.adhoc != nil:
		err = a.adhoc.Confirm(ctx)
	case a.mode == "audit":
		if lines := a.audit.DiscrepancyLines(); len(lines) > 0 {
			err = a.audit.ReportDiscrepancy(ctx)
		} else {
			err = a.audit.ConfirmOK(ctx)
		}
	}
	if err != nil {
		fmt.Println("error:", err)
	}
}

// collectProfile prompts for the organization requisites on first print
func (a *app) collectProfile() (*models.OrgProfile, error) {
	reader := bufio.NewReader(os.Stdin)
	ask := func(label string) string {
		fmt.Printf("%s: ", label)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}
	fmt.Println("Organization requisites are required for the discrepancy act.")
	return &models.OrgProfile{
		OrgName:       ask("Organization name"),
		LegalAddress:  ask("Legal address"),
		ActualAddress: ask("Actual address"),
		INN:           ask("INN"),
		KPP:           ask("KPP"),
		Phone:         ask("Phone (optional)"),
	}, nil
}

func (a *app) reset() {
	if a.workflow != nil {
		a.workflow.Reset()
	}
	if a.order != nil {
		a.order.Reset()
	}
	if a.adhoc != nil {
		a.adhoc.Reset()
	}
}

// render prints the state of the active mode after every interaction
func (a *app) render() {
	if toast := a.feedback.Toast(); toast != nil {
		fmt.Printf("[%s] %s\n", toast.Kind, toast.Message)
	}

	switch {
	case a.workflow != nil:
		d := a.workflow.Draft()
		fmt.Printf("mode=%s step=%d", a.mode, d.StepIndex)
		if d.Source != nil {
			fmt.Printf(" from=%s", d.Source.Code)
		}
		if d.Item != nil {
			fmt.Printf(" item=%s", d.Item.Name)
		}
		if d.Qty != "" {
			fmt.Printf(" qty=%s", d.Qty)
		}
		if d.Destination != nil {
			fmt.Printf(" to=%s", d.Destination.Code)
		}
		if d.Done {
			fmt.Print(" DONE")
		}
		if d.Err != "" {
			fmt.Printf(" err=%q", d.Err)
		}
		fmt.Println()
	case a.order != nil:
		for _, line := range a.order.Visible() {
			fmt.Printf("  %-20s ordered=%v accepted=%v remaining=%v [%s]\n",
				line.Line.Product.Name, line.Line.OrderedQty,
				line.AcceptedTotal(), line.Remaining(), line.Status())
		}
	case a.adhoc != nil:
		for _, line := range a.adhoc.Lines() {
			fmt.Printf("  item=%d qty=%v\n", line.ItemID, line.Qty)
		}
	case a.mode == "audit":
		if loc := a.audit.Location(); loc != nil {
			fmt.Printf("auditing %s (%s)\n", loc.Name, loc.Code)
		} else if a.audit.SessionID() != "" {
			fmt.Println("audit session open; scan a location")
		}
	}
}
