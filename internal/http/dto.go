package http

import (
	"math"

	"github.com/shopspring/decimal"

	"budgetmaster/internal/core"
)

// amount marshals Money as a JSON number with two decimals, e.g. 105.00.
type amount core.Money

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(core.Money(a).String()), nil
}

// moneyOrZero converts an optional amount; absent means zero. Amounts
// decode from JSON numbers or numeric strings.
func moneyOrZero(d *decimal.Decimal) (core.Money, error) {
	if d == nil {
		return core.Money{}, nil
	}
	return core.MoneyFromDecimal(*d)
}

type registerRequest struct {
	Email                string           `json:"email" validate:"required,email,max=120"`
	Name                 string           `json:"name" validate:"required,max=100"`
	Password             string           `json:"password" validate:"required"`
	MonthlySavingsTarget *decimal.Decimal `json:"monthly_savings_target"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
	Token   string `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

type categoryResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type expenseRequest struct {
	UserID      int64            `json:"user_id" validate:"required,gt=0"`
	CategoryID  int64            `json:"category_id" validate:"required,gt=0"`
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Description string           `json:"description" validate:"max=500"`
	ExpenseDate string           `json:"expense_date" validate:"omitempty,datetime=2006-01-02"`
}

type createExpenseResponse struct {
	Message   string `json:"message"`
	ExpenseID int64  `json:"expense_id"`
}

type expenseResponse struct {
	ID           int64  `json:"id"`
	Amount       amount `json:"amount"`
	Description  string `json:"description"`
	ExpenseDate  string `json:"expense_date"`
	CategoryName string `json:"category_name"`
	CategoryIcon string `json:"category_icon"`
}

func newExpenseResponse(e core.ExpenseView) expenseResponse {
	return expenseResponse{
		ID:           e.ID,
		Amount:       amount(e.Amount),
		Description:  e.Description,
		ExpenseDate:  e.Date.String(),
		CategoryName: e.CategoryName,
		CategoryIcon: e.CategoryIcon,
	}
}

type limitRequest struct {
	CategoryID int64            `json:"category_id" validate:"required,gt=0"`
	Amount     *decimal.Decimal `json:"amount" validate:"required"`
}

type budgetLimitsRequest struct {
	UserID               int64            `json:"user_id" validate:"required,gt=0"`
	MonthlySavingsTarget *decimal.Decimal `json:"monthly_savings_target"`
	Limits               []limitRequest   `json:"limits" validate:"required,dive"`
}

type budgetStatusResponse struct {
	CategoryID    int64   `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	CategoryIcon  string  `json:"category_icon"`
	CategoryColor string  `json:"category_color"`
	Limit         amount  `json:"limit"`
	Spent         amount  `json:"spent"`
	Remaining     amount  `json:"remaining"`
	Percentage    float64 `json:"percentage"`
}

func newBudgetStatusResponse(st core.BudgetStatus) budgetStatusResponse {
	return budgetStatusResponse{
		CategoryID:    st.Category.ID,
		CategoryName:  st.Category.Name,
		CategoryIcon:  st.Category.Icon,
		CategoryColor: st.Category.Color,
		Limit:         amount(st.Limit),
		Spent:         amount(st.Spent),
		Remaining:     amount(st.Remaining),
		Percentage:    math.Round(st.Percentage*100) / 100,
	}
}

type testEmailRequest struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}
