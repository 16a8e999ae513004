package pipeline

import (
	"math"
	"regexp"
	"strings"
	"time"

	"rentdesk/internal"
	"rentdesk/internal/util"
)

// Label-anchored extraction rules. Each rule is independent and
// tolerant of arbitrary whitespace between label and value; a rule that
// fails to match leaves its field unset.
var (
	reOrderNumber     = regexp.MustCompile(`(?i)(?:číslo objednávky|objednávka č\.?|order (?:number|no\.?))\s*:?\s*([A-Z0-9][A-Z0-9-]{2,})`)
	reCustomerName    = regexp.MustCompile(`(?i)(?:odoberateľ|zákazník|meno a priezvisko)\s*:?\s*(.+)`)
	reCustomerEmail   = regexp.MustCompile(`(?i)e-?mail\s*:?\s*([^\s@]+@[^\s@,;]+)`)
	reCustomerPhone   = regexp.MustCompile(`(?i)(?:telefón|tel\.|mobil)\s*:?\s*(\+?\d[\d /-]{5,})`)
	reCustomerAddress = regexp.MustCompile(`(?i)(?:adresa|bydlisko)\s*:?\s*(.+)`)

	rePickupLocation = regexp.MustCompile(`(?i)(?:miesto (?:prevzatia|vyzdvihnutia)|prevzatie vozidla)\s*:?\s*(.+)`)
	reReturnLocation = regexp.MustCompile(`(?i)(?:miesto vrátenia|vrátenie vozidla)\s*:?\s*(.+)`)

	reRangeEU  = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}(?::\d{2})?)\s*-\s*(\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}(?::\d{2})?)`)
	reRangeISO = regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}(?::\d{2})?)\s*-\s*(\d{4}-\d{2}-\d{2} \d{2}:\d{2}(?::\d{2})?)`)

	reVehicleLabel = regexp.MustCompile(`(?i)(?:vozidlo|auto)\s*:?\s*(.+)`)

	reTotalPrice = regexp.MustCompile(`(?i)(?:celková cena|cena spolu|cena celkom)\s*:?\s*([0-9][0-9 .,]*)`)
	reDeposit    = regexp.MustCompile(`(?i)(?:depozit|záloha|kaucia)\s*:?\s*([0-9][0-9 .,]*)`)

	reAllowedKm = regexp.MustCompile(`(?i)(?:počet povolených km|povolené km|limit km)\s*:?\s*([0-9][0-9 .,]*)`)
	rePerDayKm  = regexp.MustCompile(`(?i)([0-9][0-9 .,]*)\s*km\s*(?:/\s*deň|na deň|denne)`)
	reBareKm    = regexp.MustCompile(`(?i)([0-9][0-9 .,]*)\s*km\b`)

	reExtraKmRate = regexp.MustCompile(`(?i)(?:cena za km navyše|poplatok za (?:každý )?km|km nad limit)\s*:?\s*([0-9][0-9 .,]*)`)

	rePaymentMethod    = regexp.MustCompile(`(?i)(?:spôsob platby|platba)\s*:?\s*(.+)`)
	reFuelLevel        = regexp.MustCompile(`(?i)(?:stav paliva|palivo)\s*:?\s*(.+)`)
	reOdometer         = regexp.MustCompile(`(?i)(?:stav tachometra|tachometer)\s*:?\s*([0-9][0-9 .,]*)`)
	reReturnConditions = regexp.MustCompile(`(?i)podmienky vrátenia\s*:?\s*(.+)`)
	reNotes            = regexp.MustCompile(`(?i)pozn[áa]mk[ay]?\s*:?\s*(.+)`)
	reInsurance        = regexp.MustCompile(`(?i)poistenie\s*:?\s*(.+)`)
)

// labelRules guards the unlabeled vehicle-line scan: a line that matches
// any other rule's label is never treated as a vehicle line.
var labelRules = []*regexp.Regexp{
	reOrderNumber, reCustomerName, reCustomerEmail, reCustomerPhone, reCustomerAddress,
	rePickupLocation, reReturnLocation, reTotalPrice, reDeposit, reAllowedKm,
	reExtraKmRate, rePaymentMethod, reFuelLevel, reOdometer, reReturnConditions,
	reNotes, reInsurance,
}

// Extract runs the rule cascade over normalized text. It never fails;
// missing optional fields stay nil.
func Extract(text string) internal.ParsedReservation {
	res := internal.ParsedReservation{}
	if strings.TrimSpace(text) == "" {
		return res
	}

	res.OrderNumber = matchString(reOrderNumber, text)
	res.CustomerName = matchString(reCustomerName, text)
	res.CustomerEmail = matchString(reCustomerEmail, text)
	res.CustomerPhone = matchString(reCustomerPhone, text)
	res.CustomerAddress = matchString(reCustomerAddress, text)

	// Pickup label wins, unless a distinct return label differs: vendor
	// emails put the operative location there.
	pickup := matchString(rePickupLocation, text)
	ret := matchString(reReturnLocation, text)
	switch {
	case ret != nil && (pickup == nil || *ret != *pickup):
		res.PickupLocation = ret
	default:
		res.PickupLocation = pickup
	}

	res.StartDate, res.EndDate = extractDateRange(text)
	res.VehicleName, res.VehicleCode, res.PricePerDay = extractVehicleLine(text)
	res.DailyKilometers = extractDailyKilometers(text)

	res.TotalPrice = matchDecimal(reTotalPrice, text)
	res.Deposit = matchDecimal(reDeposit, text)
	res.ExtraKilometerRate = matchDecimal(reExtraKmRate, text)
	res.Odometer = matchDecimal(reOdometer, text)

	res.PaymentMethodLabel = matchString(rePaymentMethod, text)
	res.FuelLevel = matchString(reFuelLevel, text)
	res.ReturnConditions = matchString(reReturnConditions, text)
	res.Notes = matchString(reNotes, text)
	res.InsuranceInfo = matchString(reInsurance, text)

	return res
}

func extractDateRange(text string) (*time.Time, *time.Time) {
	for _, re := range []*regexp.Regexp{reRangeEU, reRangeISO} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var start, end *time.Time
		if t, ok := util.ParseTimestamp(m[1]); ok {
			start = internal.TimePtr(t)
		}
		if t, ok := util.ParseTimestamp(m[2]); ok {
			end = internal.TimePtr(t)
		}
		return start, end
	}
	return nil, nil
}

// extractVehicleLine locates the plate token in the vehicle line: tokens
// before it form the vehicle name, the token after it (if numeric) is
// the per-day price. A labeled line is preferred; otherwise any line
// holding a plate-shaped token that is not claimed by another label.
func extractVehicleLine(text string) (name, code *string, pricePerDay *float64) {
	for _, line := range splitLines(text) {
		candidate := line
		labeled := false
		if m := reVehicleLabel.FindStringSubmatch(line); m != nil {
			candidate = m[1]
			labeled = true
		}
		if !labeled && matchesOtherLabel(line) {
			continue
		}
		if n, c, p, ok := parseVehicleTokens(candidate); ok {
			return n, c, p
		}
	}
	return nil, nil, nil
}

func parseVehicleTokens(line string) (name, code *string, pricePerDay *float64, ok bool) {
	tokens := strings.Fields(line)
	for i, tok := range tokens {
		if !isPlateToken(tok) {
			continue
		}
		code = internal.StringPtr(tok)
		if i > 0 {
			name = internal.StringPtr(strings.Join(tokens[:i], " "))
		}
		if i+1 < len(tokens) {
			if v, parsed := util.ParseDecimal(tokens[i+1]); parsed {
				pricePerDay = internal.FloatPtr(v)
			}
		}
		return name, code, pricePerDay, true
	}
	return nil, nil, nil, false
}

func isPlateToken(tok string) bool {
	if len(tok) < 6 || len(tok) > 7 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, r := range tok {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			return false
		}
	}
	return hasLetter && hasDigit
}

func matchesOtherLabel(line string) bool {
	for _, re := range labelRules {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// extractDailyKilometers treats every kilometer quantity as a daily
// allowance, checked in priority order: explicit allowed-km label, then
// per-day phrasing, then any bare "<number> km". First match wins.
func extractDailyKilometers(text string) *float64 {
	for _, re := range []*regexp.Regexp{reAllowedKm, rePerDayKm, reBareKm} {
		if v := matchDecimal(re, text); v != nil {
			return v
		}
	}
	return nil
}

// Confidence is the share of core fields the cascade managed to fill,
// stored on the processing record as a review hint.
func Confidence(r internal.ParsedReservation) float64 {
	set := 0
	for _, present := range []bool{
		r.OrderNumber != nil,
		r.CustomerName != nil,
		r.CustomerEmail != nil,
		r.CustomerPhone != nil,
		r.VehicleCode != nil,
		r.StartDate != nil,
		r.EndDate != nil,
		r.TotalPrice != nil,
		r.DailyKilometers != nil,
		r.PickupLocation != nil,
	} {
		if present {
			set++
		}
	}
	return math.Round(float64(set)*10) / 100
}

func matchString(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	value := strings.TrimSpace(m[len(m)-1])
	if value == "" {
		return nil
	}
	return internal.StringPtr(value)
}

func matchDecimal(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, ok := util.ParseDecimal(m[len(m)-1])
	if !ok {
		return nil
	}
	return internal.FloatPtr(v)
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
