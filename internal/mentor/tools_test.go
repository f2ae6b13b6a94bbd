package mentor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"motoinvest/internal/core"
)

type fakeExecutor struct {
	bills   []core.Bill
	summary FinancialSummary
	addErr  error
}

func (f *fakeExecutor) AddBill(_ context.Context, name string, amount core.Money, due core.Date) (core.Bill, error) {
	if f.addErr != nil {
		return core.Bill{}, f.addErr
	}
	b := core.Bill{ID: "b1", UserID: "u1", Name: name, Amount: amount, DueDate: due}
	f.bills = append(f.bills, b)
	return b, nil
}

func (f *fakeExecutor) FinancialSummary(context.Context) (FinancialSummary, error) {
	return f.summary, nil
}

func TestToolset_AddBill(t *testing.T) {
	exec := &fakeExecutor{}
	ts := NewToolset(exec)

	out, err := ts.Dispatch(context.Background(), ToolAddBill, json.RawMessage(`{"name":"Aluguel","amount":600,"dueDate":"2024-05-10"}`))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(exec.bills) != 1 {
		t.Fatalf("bills created = %d, want 1", len(exec.bills))
	}
	b := exec.bills[0]
	if b.Name != "Aluguel" || b.Amount.Cents != 60000 || b.DueDate.String() != "2024-05-10" || b.IsPaid {
		t.Fatalf("bill = %+v", b)
	}
	var res addBillResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if !res.Created || res.Amount != 600 || res.DueDate != "2024-05-10" {
		t.Fatalf("result = %+v", res)
	}
}

func TestToolset_AddBillRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing name", `{"amount":10,"dueDate":"2024-05-10"}`},
		{"missing amount", `{"name":"Luz","dueDate":"2024-05-10"}`},
		{"zero amount", `{"name":"Luz","amount":0,"dueDate":"2024-05-10"}`},
		{"negative amount", `{"name":"Luz","amount":-5,"dueDate":"2024-05-10"}`},
		{"bad date", `{"name":"Luz","amount":10,"dueDate":"10/05/2024"}`},
		{"not json", `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			_, err := NewToolset(exec).Dispatch(context.Background(), ToolAddBill, json.RawMessage(tt.input))
			if !errors.Is(err, ErrToolInput) {
				t.Fatalf("error = %v, want ErrToolInput", err)
			}
			if len(exec.bills) != 0 {
				t.Fatal("no bill should be created on invalid input")
			}
		})
	}
}

func TestToolset_UnknownTool(t *testing.T) {
	_, err := NewToolset(&fakeExecutor{}).Dispatch(context.Background(), "delete_everything", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("error = %v, want ErrUnknownTool", err)
	}
}

func TestToolset_FinancialSummary(t *testing.T) {
	exec := &fakeExecutor{summary: FinancialSummary{Month: "2024-05", TotalEarned: 100, TotalSpent: 30, NetProfit: 70}}
	out, err := NewToolset(exec).Dispatch(context.Background(), ToolGetFinancialSummary, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !strings.Contains(out, `"netProfit":70`) {
		t.Fatalf("summary = %s", out)
	}
}

func TestToolset_Params(t *testing.T) {
	ts := NewToolset(&fakeExecutor{})
	if got := ts.Names(); len(got) != 2 || got[0] != ToolAddBill || got[1] != ToolGetFinancialSummary {
		t.Fatalf("Names() = %v", got)
	}
	params := ts.Params()
	if len(params) != 2 {
		t.Fatalf("Params() len = %d", len(params))
	}
	add := params[0].OfTool
	if add == nil || add.Name != ToolAddBill {
		t.Fatalf("first tool = %+v", add)
	}
	if strings.Join(add.InputSchema.Required, ",") != "name,amount,dueDate" {
		t.Fatalf("required = %v", add.InputSchema.Required)
	}
	if sum := params[1].OfTool; sum == nil || len(sum.InputSchema.Required) != 0 {
		t.Fatalf("summary tool must have no required arguments: %+v", sum)
	}
}
