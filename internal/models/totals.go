package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// MoneyScale - число знаков после запятой для денежных сумм.
const MoneyScale = 2

// MaxCount - предел пробега и количества, столбцы INTEGER.
const MaxCount = math.MaxInt32

// Пределы столбцов NUMERIC(12,2) и NUMERIC(8,2).
var (
	MaxMoney = decimal.RequireFromString("9999999999.99")
	MaxHours = decimal.RequireFromString("999999.99")
)

// RoundMoney округляет сумму до копеек.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// Totals - производные суммы заказ-наряда.
type Totals struct {
	Labor decimal.Decimal
	Parts decimal.Decimal
	Grand decimal.Decimal
}

// CalculateTotals пересчитывает суммы по полным коллекциям работ и запчастей.
// Итог не ограничивается снизу: скидка больше суммы даёт отрицательный итог.
func CalculateTotals(services []*OsService, parts []*OsPart, discount decimal.Decimal) Totals {
	labor := decimal.Zero
	for _, s := range services {
		labor = labor.Add(s.Price)
	}

	partsTotal := decimal.Zero
	for _, p := range parts {
		partsTotal = partsTotal.Add(p.LineTotal())
	}

	labor = RoundMoney(labor)
	partsTotal = RoundMoney(partsTotal)

	return Totals{
		Labor: labor,
		Parts: partsTotal,
		Grand: RoundMoney(labor.Add(partsTotal).Sub(discount)),
	}
}

// WithinLimits сообщает, помещаются ли суммы в денежные столбцы.
func (t Totals) WithinLimits() bool {
	for _, d := range []decimal.Decimal{t.Labor, t.Parts, t.Grand} {
		if d.Abs().GreaterThan(MaxMoney) {
			return false
		}
	}
	return true
}
