package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/catalog"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/ledger"
	"go-pos-checkout/internal/tenant"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const maxToolRounds = 5

var ErrUnknownTool = errors.New("unknown tool")

// Agent answers shop questions through read-only tools. It never changes
// stock or prices; those go through the checkout and catalog endpoints.
type Agent struct {
	apiKey string
	model  string
}

func NewAgent(apiKey string) *Agent {
	return &Agent{apiKey: apiKey, model: "gemini-2.0-flash-001"}
}

// Tools lists the functions the model may call.
func Tools() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_inventory",
				Description: "Get the full inventory list. Use this to find ANY product details like ID, Name, Price, Cost, or Stock.",
			},
			{
				Name:        "low_stock",
				Description: "List products at or below their low-stock threshold.",
			},
			{
				Name:        "get_sales_report",
				Description: "Get total sales revenue, order count and best sellers for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD), inclusive"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
			{
				Name:        "customer_balance",
				Description: "Get a customer's ledger balance. Negative means the customer owes the shop.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name": {Type: genai.TypeString, Description: "Customer name"},
					},
					Required: []string{"name"},
				},
			},
		},
	}}
}

// Run sends message to the model and resolves tool calls against scope's tenant.
func (a *Agent) Run(ctx context.Context, scope tenant.Scope, userMessage string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = Tools()

	today := time.Now().Format("2006-01-02")
	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are a POS Assistant for one shop.

	RULES:
	1. READ: If a user asks for PRICE, COST, STOCK, or DETAILS of a product, call 'check_inventory' and answer from the JSON.
	2. RESTOCK: For "what should I reorder" style questions, call 'low_stock'.
	3. SALES: If the user asks for sales/revenue, use 'get_sales_report'.
	4. CUSTOMERS: For what a customer owes or has in credit, use 'customer_balance'.
	5. You cannot change prices, stock or orders. Tell the user to use the POS screens for that.

	USER: %s`, today, userMessage)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}

		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			out, err := ExecuteTool(ctx, scope, call.Name, call.Args)
			if err != nil {
				slog.Warn("assistant tool failed", "tool", call.Name, "tenant_id", scope.TenantID, "error", err)
				out = map[string]any{"error": err.Error()}
			}
			replies = append(replies, genai.FunctionResponse{Name: call.Name, Response: out})
		}

		resp, err = session.SendMessage(ctx, replies...)
		if err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

// ExecuteTool runs one tool for the scope's tenant.
func ExecuteTool(ctx context.Context, scope tenant.Scope, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "check_inventory":
		products, err := catalog.NewStore(database.DB).List(ctx, scope.TenantID, false)
		if err != nil {
			return nil, err
		}
		type SimpleProduct struct {
			ID    uint   `json:"id"`
			Name  string `json:"name"`
			Stock int    `json:"stock"`
			Price string `json:"price"`
			Cost  string `json:"cost"`
		}
		list := make([]SimpleProduct, 0, len(products))
		for _, p := range products {
			price := "not priced"
			if p.SellingPrice.Valid {
				price = p.SellingPrice.Decimal.StringFixed(2)
			}
			list = append(list, SimpleProduct{ID: p.ID, Name: p.Name, Stock: p.Quantity, Price: price, Cost: p.PurchasePrice.StringFixed(2)})
		}
		return map[string]any{"inventory": asJSON(list)}, nil

	case "low_stock":
		products, err := catalog.NewStore(database.DB).LowStock(ctx, scope.TenantID)
		if err != nil {
			return nil, err
		}
		type LowItem struct {
			Name      string `json:"name"`
			Stock     int    `json:"stock"`
			Threshold int    `json:"threshold"`
		}
		low := make([]LowItem, 0, len(products))
		for _, p := range products {
			low = append(low, LowItem{Name: p.Name, Stock: p.Quantity, Threshold: *p.LowStockThreshold})
		}
		return map[string]any{"low_stock": asJSON(low)}, nil

	case "get_sales_report":
		startStr, _ := args["start_date"].(string)
		endStr, _ := args["end_date"].(string)
		start, err1 := time.Parse("2006-01-02", startStr)
		end, err2 := time.Parse("2006-01-02", endStr)
		if err1 != nil || err2 != nil {
			return nil, apperr.Validation("start_date", "dates must be in YYYY-MM-DD format")
		}

		report, err := database.GetSalesReport(ctx, scope.TenantID, start, end.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		top := make([]string, 0, len(report.TopSelling))
		for _, ts := range report.TopSelling {
			top = append(top, fmt.Sprintf("%s (%d sold)", ts.ProductName, ts.Sold))
		}
		return map[string]any{
			"revenue":     report.TotalRevenue.StringFixed(2),
			"sales_count": report.TotalCount,
			"top_selling": asJSON(top),
		}, nil

	case "customer_balance":
		customerName, _ := args["name"].(string)
		customer, err := ledger.New(database.DB, "").FindByName(ctx, scope.TenantID, customerName)
		if err != nil {
			return nil, err
		}
		return map[string]any{"name": customer.Name, "balance": customer.Balance.StringFixed(2)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// asJSON flattens lists for the function response, which only carries
// plain values and maps.
func asJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I could not come up with an answer."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
