package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"rental-normalizer/models"
)

var (
	amenitySplit = regexp.MustCompile(`[,;|\n]`)
	segmentSplit = regexp.MustCompile(`[;\n]`)
	itemSplit    = regexp.MustCompile(`[,&/]|\band\b`)
)

// ExpandAmenities maps raw amenity tokens onto the fixed taxonomy.
// Accepted shapes: a delimited string, a list of strings, a
// category -> name -> bool map, or a flat name -> bool map. Unknown tokens
// are returned in dropped and never become keys.
func (t *Taxonomy) ExpandAmenities(v any) (models.Amenities, []string, []Warning) {
	out := t.emptyAmenities()
	var dropped []string
	var warns []Warning

	set := func(token string, on bool) {
		key, ok := t.lookupAmenity(token)
		if !ok {
			dropped = append(dropped, strings.TrimSpace(token))
			return
		}
		if on {
			out[key.Category][key.Name] = true
		}
	}
	setTokens := func(s string) {
		for _, tok := range amenitySplit.Split(s, -1) {
			if strings.TrimSpace(tok) != "" {
				set(tok, true)
			}
		}
	}
	setFlag := func(name string, raw any) {
		on, err := CoerceBool(FieldAmenities+"."+name, raw)
		if err != nil {
			warns = append(warns, warningFor(FieldAmenities, err))
			return
		}
		set(name, on)
	}

	switch x := v.(type) {
	case nil:
	case string:
		setTokens(x)
	case []string:
		for _, s := range x {
			setTokens(s)
		}
	case []any:
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				warns = append(warns, Warning{Field: FieldAmenities, Kind: WarnCoercion, Value: fmt.Sprint(item), Reason: "amenity token is not text"})
				continue
			}
			setTokens(s)
		}
	default:
		m, ok := asStringMap(v)
		if !ok {
			warns = append(warns, Warning{Field: FieldAmenities, Kind: WarnCoercion, Value: fmt.Sprintf("%T", v), Reason: "unsupported amenities shape"})
			break
		}
		for _, key := range sortedKeys(m) {
			if inner, nested := asStringMap(m[key]); nested {
				for _, name := range sortedKeys(inner) {
					setFlag(name, inner[name])
				}
				continue
			}
			setFlag(key, m[key])
		}
	}
	return out, dropped, warns
}

// ExpandUtilities maps raw utility tokens onto the fixed utility keys.
// A utility named without a payer stays unknown; the payer is never
// guessed.
func (t *Taxonomy) ExpandUtilities(v any) (models.Utilities, []string, []Warning) {
	out := models.NewUtilities()
	var dropped []string
	var warns []Warning

	switch x := v.(type) {
	case nil:
	case string:
		for _, seg := range segmentSplit.Split(x, -1) {
			t.expandUtilitySegment(seg, out, &dropped, &warns)
		}
	case []string:
		for _, seg := range x {
			t.expandUtilitySegment(seg, out, &dropped, &warns)
		}
	case []any:
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				warns = append(warns, Warning{Field: FieldUtilities, Kind: WarnCoercion, Value: fmt.Sprint(item), Reason: "utility token is not text"})
				continue
			}
			t.expandUtilitySegment(s, out, &dropped, &warns)
		}
	default:
		m, ok := asStringMap(v)
		if !ok {
			warns = append(warns, Warning{Field: FieldUtilities, Kind: WarnCoercion, Value: fmt.Sprintf("%T", v), Reason: "unsupported utilities shape"})
			break
		}
		for _, key := range sortedKeys(m) {
			u, known := t.utilityIndex[fold(strings.TrimSpace(key))]
			if !known {
				dropped = append(dropped, key)
				continue
			}
			payer, w := t.parsePayer(string(u), m[key])
			if w != nil {
				warns = append(warns, *w)
			}
			assignPayer(out, u, payer)
		}
	}
	return out, dropped, warns
}

// expandUtilitySegment handles one free-text segment such as
// "owner: water, trash" or "water, sewer & trash included".
func (t *Taxonomy) expandUtilitySegment(seg string, out models.Utilities, dropped *[]string, warns *[]Warning) {
	text := fold(seg)
	label := models.PayerUnknown
	if i := strings.Index(text, ":"); i >= 0 {
		head := text[:i]
		if !t.utilityRe.MatchString(head) {
			if p, ok := t.singlePayer(head); ok {
				label = p
				text = text[i+1:]
			}
		}
	}
	segPayer, _ := t.singlePayer(text)

	for _, item := range itemSplit.Split(text, -1) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		names := t.utilityRe.FindAllString(item, -1)
		classes := t.payerClasses(item)
		if len(names) == 0 {
			if len(classes) == 0 {
				*dropped = append(*dropped, item)
			}
			continue
		}

		payer := models.PayerUnknown
		switch len(classes) {
		case 0:
			payer = label
			if payer == models.PayerUnknown {
				payer = segPayer
			}
		case 1:
			payer = classes[0]
		default:
			*warns = append(*warns, Warning{Field: FieldUtilities, Kind: WarnAmbiguous, Value: item, Reason: "names both owner and tenant"})
		}
		for _, name := range names {
			assignPayer(out, t.utilityIndex[name], payer)
		}
	}
}

// parsePayer reads a structured payer value: an exact enum or a payer
// phrase such as "included".
func (t *Taxonomy) parsePayer(utility string, v any) (models.Payer, *Warning) {
	field := FieldUtilities + "." + utility
	s, ok := v.(string)
	if !ok {
		return models.PayerUnknown, &Warning{Field: field, Kind: WarnCoercion, Value: fmt.Sprint(v), Reason: "payer is not text"}
	}
	folded := fold(strings.TrimSpace(s))
	if p := models.Payer(folded); p.IsValid() {
		return p, nil
	}
	if folded == "" {
		return models.PayerUnknown, nil
	}
	if p, ok := t.singlePayer(folded); ok {
		return p, nil
	}
	return models.PayerUnknown, &Warning{Field: field, Kind: WarnCoercion, Value: s, Reason: "not a recognised payer"}
}

func (t *Taxonomy) payerClasses(text string) []models.Payer {
	seen := make(map[models.Payer]bool)
	for _, phrase := range t.payerRe.FindAllString(text, -1) {
		seen[t.payerIndex[phrase]] = true
	}
	classes := make([]models.Payer, 0, len(seen))
	for p := range seen {
		classes = append(classes, p)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

func (t *Taxonomy) singlePayer(text string) (models.Payer, bool) {
	classes := t.payerClasses(text)
	if len(classes) != 1 {
		return models.PayerUnknown, false
	}
	return classes[0], true
}

// assignPayer keeps the first known payer seen for a utility.
func assignPayer(out models.Utilities, u models.Utility, p models.Payer) {
	if out[u] == models.PayerUnknown {
		out[u] = p
	}
}

// asStringMap normalizes the map shapes a raw value can arrive in.
func asStringMap(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case map[string]bool:
		m := make(map[string]any, len(x))
		for k, b := range x {
			m[k] = b
		}
		return m, true
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, s := range x {
			m[k] = s
		}
		return m, true
	case models.Amenities:
		m := make(map[string]any, len(x))
		for cat, flags := range x {
			m[string(cat)] = flags
		}
		return m, true
	case models.Utilities:
		m := make(map[string]any, len(x))
		for u, p := range x {
			m[string(u)] = string(p)
		}
		return m, true
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
