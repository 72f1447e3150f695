// Package tool exposes the workflow operations as function tools the
// external decision-making agent can call: one ToolInfo per operation
// plus an executor that decodes arguments and dispatches.
package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/metroequip/rentflow/rental/contract"
	"github.com/metroequip/rentflow/rental/workflow"
)

const (
	ToolVerifyBusinessLicense    = "verify_business_license"
	ToolSearchAvailableEquipment = "search_available_equipment"
	ToolSelectEquipment          = "select_equipment"
	ToolVerifySiteSafety         = "verify_site_safety"
	ToolProposePrice             = "propose_price"
	ToolAcceptPrice              = "accept_price"
	ToolVerifyOperator           = "verify_operator_credentials"
	ToolVerifyInsurance          = "verify_insurance_coverage"
	ToolCompleteBooking          = "complete_booking"
	ToolEndCall                  = "end_call"
)

// Executor runs one named tool against a workflow.
type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// Catalog returns the tool surface handed to the decision-maker.
func Catalog() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolVerifyBusinessLicense,
			Desc: "Verify the customer's business license with state authorities. Call after collecting the license number.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"license_number": {Type: schema.String, Desc: "Business license number provided by the customer", Required: true},
			}),
		},
		{
			Name: ToolSearchAvailableEquipment,
			Desc: "Search available equipment from the customer's natural-language request.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"search_query": {Type: schema.String, Desc: "Natural language search query, e.g. 'excavator for foundation work'", Required: true},
			}),
		},
		{
			Name: ToolSelectEquipment,
			Desc: "Select specific equipment by ID after the customer chooses.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"equipment_id": {Type: schema.String, Desc: "The equipment ID, e.g. EQ001", Required: true},
			}),
		},
		{
			Name: ToolVerifySiteSafety,
			Desc: "Verify the job site can safely accommodate the selected equipment.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"job_address": {Type: schema.String, Desc: "The job site address", Required: true},
			}),
		},
		{
			Name: ToolProposePrice,
			Desc: "Propose a negotiated daily rate for the rental.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"proposed_daily_rate": {Type: schema.Number, Desc: "Proposed daily rental rate", Required: true},
				"rental_days":         {Type: schema.Integer, Desc: "Number of rental days (default 1)"},
			}),
		},
		{
			Name: ToolAcceptPrice,
			Desc: "Accept the agreed rate and move on to operator verification.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"confirmed_daily_rate": {Type: schema.Number, Desc: "The confirmed daily rental rate", Required: true},
			}),
		},
		{
			Name: ToolVerifyOperator,
			Desc: "Verify the operator holds the certification the selected equipment requires.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"operator_name":    {Type: schema.String, Desc: "Operator's name", Required: true},
				"operator_license": {Type: schema.String, Desc: "Operator's license or certification number", Required: true},
				"operator_phone":   {Type: schema.String, Desc: "Operator's contact phone number", Required: true},
			}),
		},
		{
			Name: ToolVerifyInsurance,
			Desc: "Verify the customer's insurance meets the equipment's minimum coverage.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"policy_number": {Type: schema.String, Desc: "Insurance policy number", Required: true},
			}),
		},
		{
			Name:        ToolCompleteBooking,
			Desc:        "Finalize the rental booking and update inventory.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		{
			Name: ToolEndCall,
			Desc: "End the call gracefully with a reason.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"reason": {Type: schema.String, Desc: "Reason for ending, e.g. 'completed' or 'failed_verification'", Required: true},
			}),
		},
	}
}

// NewExecutor binds the catalog to one workflow instance.
func NewExecutor(w *workflow.Workflow) Executor {
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolVerifyBusinessLicense:
			return run(ctx, tool, func() (contractx.Result, error) {
				return w.VerifyCustomer(ctx, stringArg(args, "license_number"))
			})
		case ToolSearchAvailableEquipment:
			items, res, err := w.SearchItems(ctx, stringArg(args, "search_query"))
			if err != nil {
				return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
			}
			return contractx.ToolResult{Tool: tool, Result: searchOutput{Outcome: res, Items: items}}, nil
		case ToolSelectEquipment:
			return run(ctx, tool, func() (contractx.Result, error) {
				return w.SelectItem(ctx, stringArg(args, "equipment_id"))
			})
		case ToolVerifySiteSafety:
			return run(ctx, tool, func() (contractx.Result, error) {
				return w.VerifySite(ctx, stringArg(args, "job_address"))
			})
		case ToolProposePrice:
			return run(ctx, tool, func() (contractx.Result, error) {
				return w.Propose(ctx, numberArg(args, "proposed_daily_rate"), intArg(args, "rental_days"))
			})
		case ToolAcceptPrice:
			return run(ctx, tool, func() (contractx.Result, error) {
				return w.Accept(ctx, numberArg(args, "confirmed_daily_rate"))
			})
		case ToolVerifyOperator:
			return run(ctx, tool, func() (contractx.Result, error) {
				return w.VerifyOperator(ctx,
					stringArg(args, "operator_name"),
					stringArg(args, "operator_license"),
					stringArg(args, "operator_phone"))
			})
		case ToolVerifyInsurance:
			return run(ctx, tool, func() (contractx.Result, error) {
				return w.VerifyInsurance(ctx, stringArg(args, "policy_number"))
			})
		case ToolCompleteBooking:
			return run(ctx, tool, func() (contractx.Result, error) {
				return w.CompleteBooking(ctx)
			})
		case ToolEndCall:
			return run(ctx, tool, func() (contractx.Result, error) {
				return w.EndCall(ctx, stringArg(args, "reason"))
			})
		default:
			return contractx.ToolResult{
				Tool:  tool,
				Error: fmt.Sprintf("tool=%s is not part of the rental workflow", tool),
			}, nil
		}
	}
}

type searchOutput struct {
	Outcome contractx.Result `json:"outcome"`
	Items   []contractx.Item `json:"items"`
}

func run(_ context.Context, tool string, op func() (contractx.Result, error)) (contractx.ToolResult, error) {
	res, err := op()
	if err != nil {
		// Stage-mismatch and gate violations are caller errors; relay
		// them as the tool's error string so the decision-maker can
		// correct course without crashing the session.
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: res}, nil
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}

func numberArg(args map[string]any, key string) float64 {
	if args == nil {
		return 0
	}
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func intArg(args map[string]any, key string) int {
	return int(numberArg(args, key))
}
