package mentor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"motoinvest/internal/core"
)

const (
	ToolAddBill             = "add_bill"
	ToolGetFinancialSummary = "get_financial_summary"
)

var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrToolInput   = errors.New("invalid tool input")
)

// Executor performs tool side effects for one user.
type Executor interface {
	AddBill(ctx context.Context, name string, amount core.Money, due core.Date) (core.Bill, error)
	FinancialSummary(ctx context.Context) (FinancialSummary, error)
}

// FinancialSummary is what get_financial_summary hands back to the model.
// Amounts are in reais.
type FinancialSummary struct {
	Month            string        `json:"month"`
	TotalEarned      float64       `json:"totalEarned"`
	TotalSpent       float64       `json:"totalSpent"`
	NetProfit        float64       `json:"netProfit"`
	UnpaidBillsTotal float64       `json:"unpaidBillsTotal"`
	GoalName         string        `json:"goalName,omitempty"`
	Goal             float64       `json:"goal,omitempty"`
	GoalProgress     float64       `json:"goalProgressPercent"`
	Bills            []SummaryBill `json:"bills"`
}

type SummaryBill struct {
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	DueDate string  `json:"dueDate"`
	IsPaid  bool    `json:"isPaid"`
}

type addBillInput struct {
	Name    string   `json:"name"`
	Amount  *float64 `json:"amount"`
	DueDate string   `json:"dueDate"`
}

type addBillResult struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	DueDate string  `json:"dueDate"`
	IsPaid  bool    `json:"isPaid"`
	Created bool    `json:"created"`
}

type handler func(ctx context.Context, input json.RawMessage) (any, error)

// Tool is one entry of the dispatch table.
type Tool struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
	handle      handler
}

// Toolset maps tool names to validated handlers.
type Toolset struct {
	tools map[string]Tool
}

func NewToolset(exec Executor) *Toolset {
	ts := &Toolset{tools: make(map[string]Tool)}
	ts.register(Tool{
		Name:        ToolAddBill,
		Description: "Cadastra uma conta a pagar do usuário (aluguel, parcela da moto, internet...). Use quando o usuário mencionar um boleto ou vencimento.",
		Properties: map[string]any{
			"name":    map[string]any{"type": "string", "description": "Nome da conta, ex: Aluguel"},
			"amount":  map[string]any{"type": "number", "description": "Valor em reais, ex: 600.50"},
			"dueDate": map[string]any{"type": "string", "description": "Vencimento no formato YYYY-MM-DD"},
		},
		Required: []string{"name", "amount", "dueDate"},
		handle: func(ctx context.Context, input json.RawMessage) (any, error) {
			name, amount, due, err := parseAddBill(input)
			if err != nil {
				return nil, err
			}
			bill, err := exec.AddBill(ctx, name, amount, due)
			if err != nil {
				return nil, err
			}
			return addBillResult{
				ID:      bill.ID,
				Name:    bill.Name,
				Amount:  bill.Amount.Reais(),
				DueDate: bill.DueDate.String(),
				IsPaid:  bill.IsPaid,
				Created: true,
			}, nil
		},
	})
	ts.register(Tool{
		Name:        ToolGetFinancialSummary,
		Description: "Retorna o resumo financeiro do mês atual: ganhos, gastos, lucro líquido, contas pendentes e progresso da meta.",
		Properties:  map[string]any{},
		handle: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return exec.FinancialSummary(ctx)
		},
	})
	return ts
}

func (ts *Toolset) register(t Tool) {
	ts.tools[t.Name] = t
}

// Names returns the declared tool names, sorted.
func (ts *Toolset) Names() []string {
	names := make([]string, 0, len(ts.tools))
	for n := range ts.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named tool and returns its JSON result.
func (ts *Toolset) Dispatch(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := ts.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	out, err := t.handle(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("%s: encode result: %w", name, err)
	}
	return string(b), nil
}

// Params converts the table into the Messages API tool declarations.
func (ts *Toolset) Params() []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(ts.tools))
	for _, name := range ts.Names() {
		t := ts.tools[name]
		tool := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: t.Properties,
				Required:   t.Required,
			},
		}
		params = append(params, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return params
}

func parseAddBill(input json.RawMessage) (string, core.Money, core.Date, error) {
	var in addBillInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", core.Money{}, core.Date{}, fmt.Errorf("%w: %v", ErrToolInput, err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", core.Money{}, core.Date{}, fmt.Errorf("%w: name is required", ErrToolInput)
	}
	if in.Amount == nil {
		return "", core.Money{}, core.Date{}, fmt.Errorf("%w: amount is required", ErrToolInput)
	}
	amount, err := core.FromReais(*in.Amount)
	if err != nil || amount.Cents <= 0 {
		return "", core.Money{}, core.Date{}, fmt.Errorf("%w: amount must be positive", ErrToolInput)
	}
	due, err := core.ParseDate(in.DueDate)
	if err != nil {
		return "", core.Money{}, core.Date{}, fmt.Errorf("%w: dueDate: %v", ErrToolInput, err)
	}
	return name, amount, due, nil
}
