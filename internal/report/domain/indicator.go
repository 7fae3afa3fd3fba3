package report

import (
	"fmt"
	"math"
)

// billion converts base-unit sums (MWh) to billion kWh.
const billion = 1e6

// IndicatorKey identifies a summary indicator.
type IndicatorKey string

const (
	IndicatorBilateralQuantity IndicatorKey = "bilateral_quantity"
	IndicatorPTF               IndicatorKey = "ptf"
	IndicatorDAMMatched        IndicatorKey = "dam_matchedBids"
	IndicatorIDMWAP            IndicatorKey = "idm_wap"
	IndicatorIDMYearPrice      IndicatorKey = "idm_year_price"
	IndicatorIDMQuantity       IndicatorKey = "idm_quant"
	IndicatorSMF               IndicatorKey = "smf"
	IndicatorZeroCoded         IndicatorKey = "zero_coded"
	IndicatorOneCoded          IndicatorKey = "one_coded"
	IndicatorTwoCoded          IndicatorKey = "two_coded"
	IndicatorUpDelivered       IndicatorKey = "up_delivered"
	IndicatorDownDelivered     IndicatorKey = "down_delivered"
	IndicatorPrimaryAmount     IndicatorKey = "pfc_amount"
	IndicatorPrimaryPrice      IndicatorKey = "pfp_price"
	IndicatorSecondaryAmount   IndicatorKey = "sfc_amount"
	IndicatorSecondaryPrice    IndicatorKey = "sfp_price"
)

// Indicator is one labelled summary value.
type Indicator struct {
	Key   IndicatorKey `json:"key"`
	Label string       `json:"label"`
	Value float64      `json:"value"`
}

// Summary is the ordered indicator list; order defines the summary sheet rows.
type Summary []Indicator

// Value returns the value for key, 0 when absent.
func (s Summary) Value(key IndicatorKey) float64 {
	for _, ind := range s {
		if ind.Key == key {
			return ind.Value
		}
	}
	return 0
}

// IndicatorWarning is called when an indicator could not be computed.
type IndicatorWarning func(key IndicatorKey, err error)

type indicatorDef struct {
	key     IndicatorKey
	label   string
	compute func(t *Table) (float64, error)
}

var indicatorDefs = []indicatorDef{
	{
		key:     IndicatorBilateralQuantity,
		label:   "Alış veya Satış Miktarı (milyar kWh)",
		compute: scaledSum(false, ref(CategoryBilateral, MeasureQuantity)),
	},
	{
		key:     IndicatorPTF,
		label:   "Ortalama Piyasa Takas Fiyatı (TL/MWh) (SST/SSM)",
		compute: mean(ref(CategoryPTF, MeasurePrice)),
	},
	{
		key:     IndicatorDAMMatched,
		label:   "Eşleşen Alış veya Satış Miktarı (milyar kWh)",
		compute: scaledSum(false, ref(CategoryDAMQuantity, MeasureMatched)),
	},
	{
		key:     IndicatorIDMWAP,
		label:   "Günlük Ağırlıklı Ortalama Fiyatların, Yıl Bazında Aritmetik Ortalama Fiyatı (TL/MWh)",
		compute: mean(ref(CategoryIDMPrice, MeasureWAP), ref(CategoryIDMQuantity, MeasureWAP)),
	},
	{
		key:     IndicatorIDMYearPrice,
		label:   "Yıllık Ağırlıklı Ortalama Fiyat (TL/kWh) (SST/SSM)",
		compute: idmYearPrice,
	},
	{
		key:     IndicatorIDMQuantity,
		label:   "Eşleşme Miktarı (milyar kWh)",
		compute: scaledSum(false, ref(CategoryIDMPrice, MeasureQuantity), ref(CategoryIDMQuantity, MeasureQuantity)),
	},
	{
		key:     IndicatorSMF,
		label:   "Ortalama Sistem Marjinal Fiyatı (TL/MWh)",
		compute: mean(ref(CategorySMF, MeasurePrice)),
	},
	{
		key:     IndicatorZeroCoded,
		label:   "0 Kodlu YAL ve YAT Talimatları Toplamı (milyar kWh)",
		compute: downUpTotal(MeasureZeroCoded),
	},
	{
		key:     IndicatorOneCoded,
		label:   "1 Kodlu YAL ve YAT Talimatları Toplamı (milyar kWh)",
		compute: downUpTotal(MeasureOneCoded),
	},
	{
		key:     IndicatorTwoCoded,
		label:   "2 Kodlu YAL ve YAT Talimatları Toplamı (milyar kWh)",
		compute: downUpTotal(MeasureTwoCoded),
	},
	{
		key:     IndicatorUpDelivered,
		label:   "Kesinleşmiş Yük Alma Miktarı (milyar kWh)",
		compute: scaledSum(true, ref(CategoryBPMUp, MeasureDelivered)),
	},
	{
		key:     IndicatorDownDelivered,
		label:   "Kesinleşmiş Yük Atma Miktarı (milyar kWh)",
		compute: scaledSum(true, ref(CategoryBPMDown, MeasureDelivered)),
	},
	{
		key:     IndicatorPrimaryAmount,
		label:   "Ortalama Saatlik Primer Frekans Rezerv Miktarı (MWh)",
		compute: mean(ref(CategoryPrimaryAmount, MeasureValue)),
	},
	{
		key:     IndicatorPrimaryPrice,
		label:   "Ortalama Primer Frekans Kontrolü Fiyatı (TL/MWh)",
		compute: mean(ref(CategoryPrimaryPrice, MeasureValue)),
	},
	{
		key:     IndicatorSecondaryAmount,
		label:   "Ortalama Saatlik Sekonder Frekans Rezerv Miktarı (MWh)",
		compute: mean(ref(CategorySecondaryAmount, MeasureValue)),
	},
	{
		key:     IndicatorSecondaryPrice,
		label:   "Ortalama Sekonder Frekans Kontrolü Fiyatı (TL/MWh)",
		compute: mean(ref(CategorySecondaryPrice, MeasureValue)),
	},
}

// IndicatorLabels returns the fixed labels in summary order.
func IndicatorLabels() []string {
	labels := make([]string, len(indicatorDefs))
	for i, def := range indicatorDefs {
		labels[i] = def.label
	}
	return labels
}

// ComputeIndicators reduces the merged table to the fixed indicator list.
// A missing column yields 0; a failing reduction yields 0 and a warning.
func ComputeIndicators(t *Table, warn IndicatorWarning) Summary {
	summary := make(Summary, 0, len(indicatorDefs))
	for _, def := range indicatorDefs {
		value, err := def.compute(t)
		if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
			err = fmt.Errorf("report: %s is not finite", def.key)
		}
		if err != nil {
			if warn != nil {
				warn(def.key, err)
			}
			value = 0
		}
		summary = append(summary, Indicator{Key: def.key, Label: def.label, Value: value})
	}
	return summary
}

func ref(category CategoryID, measure Measure) measureKey {
	return measureKey{category: category, measure: measure}
}

// lookup returns the first bound column among refs.
func lookup(t *Table, refs ...measureKey) ([]any, bool) {
	for _, r := range refs {
		name, ok := t.MeasureColumn(r.category, r.measure)
		if !ok {
			continue
		}
		if values, ok := t.Column(name); ok {
			return values, true
		}
	}
	return nil, false
}

func scaledSum(abs bool, refs ...measureKey) func(*Table) (float64, error) {
	return func(t *Table) (float64, error) {
		values, ok := lookup(t, refs...)
		if !ok {
			return 0, nil
		}
		total, err := sum(values, abs)
		if err != nil {
			return 0, err
		}
		return total / billion, nil
	}
}

func mean(refs ...measureKey) func(*Table) (float64, error) {
	return func(t *Table) (float64, error) {
		values, ok := lookup(t, refs...)
		if !ok {
			return 0, nil
		}
		var total float64
		var count int
		for _, v := range values {
			f, present, err := numeric(v)
			if err != nil {
				return 0, err
			}
			if !present {
				continue
			}
			total += f
			count++
		}
		if count == 0 {
			return 0, nil
		}
		return total / float64(count), nil
	}
}

func downUpTotal(measure Measure) func(*Table) (float64, error) {
	return func(t *Table) (float64, error) {
		var total float64
		for _, category := range []CategoryID{CategoryBPMDown, CategoryBPMUp} {
			values, ok := lookup(t, ref(category, measure))
			if !ok {
				continue
			}
			part, err := sum(values, true)
			if err != nil {
				return 0, err
			}
			total += part
		}
		return total / billion, nil
	}
}

// idmYearPrice is the volume-weighted intraday price: sum(q*p) / sum(q).
func idmYearPrice(t *Table) (float64, error) {
	quantities, ok := lookup(t, ref(CategoryIDMPrice, MeasureQuantity), ref(CategoryIDMQuantity, MeasureQuantity))
	if !ok {
		return 0, nil
	}
	prices, ok := lookup(t, ref(CategoryIDMPrice, MeasureWAP), ref(CategoryIDMQuantity, MeasureWAP))
	if !ok {
		return 0, nil
	}
	return WeightedMean(quantities, prices)
}

// WeightedMean returns sum(q*p) over rows where both are present divided by
// sum(q) over rows where q is present; 0 when the volume is not positive.
func WeightedMean(quantities, prices []any) (float64, error) {
	var volume, weighted float64
	for i, qv := range quantities {
		q, present, err := numeric(qv)
		if err != nil {
			return 0, err
		}
		if !present {
			continue
		}
		volume += q
		if i >= len(prices) {
			continue
		}
		p, present, err := numeric(prices[i])
		if err != nil {
			return 0, err
		}
		if present {
			weighted += q * p
		}
	}
	if volume <= 0 {
		return 0, nil
	}
	return weighted / volume, nil
}

func sum(values []any, abs bool) (float64, error) {
	var total float64
	for _, v := range values {
		f, present, err := numeric(v)
		if err != nil {
			return 0, err
		}
		if !present {
			continue
		}
		if abs {
			f = math.Abs(f)
		}
		total += f
	}
	return total, nil
}

func numeric(v any) (float64, bool, error) {
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		if math.IsNaN(n) {
			return 0, false, nil
		}
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	default:
		return 0, false, fmt.Errorf("%w: %v", ErrNonNumericValue, v)
	}
}
