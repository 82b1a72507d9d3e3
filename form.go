package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const fieldBudget = 3 * time.Second

// formField binds one identity value to the candidate controls that may hold
// it. Fields the page does not render are skipped with a warning; the order
// form decides what it needs, not us.
type formField struct {
	target Target
	value  func(id IdentityConfig) string
}

var identityFields = []formField{
	{
		target: Target{Name: "full name", Candidates: []Candidate{
			{Desc: "name input", CSS: "input[name*='name' i]:not([name*='user' i])"},
			{Desc: "nama input", CSS: "input[placeholder*='nama' i], input[placeholder*='name' i]"},
		}},
		value: func(id IdentityConfig) string { return id.Name },
	},
	{
		target: Target{Name: "national id", Candidates: []Candidate{
			{Desc: "ktp input", CSS: "input[name*='ktp' i], input[name*='nik' i]"},
			{Desc: "identity input", CSS: "input[name*='identity' i], input[placeholder*='ktp' i], input[placeholder*='identitas' i]"},
		}},
		value: func(id IdentityConfig) string { return id.NationalID },
	},
	{
		target: Target{Name: "email", Candidates: []Candidate{
			{Desc: "email type", CSS: "input[type='email']"},
			{Desc: "email name", CSS: "input[name*='email' i], input[placeholder*='email' i]"},
		}},
		value: func(id IdentityConfig) string { return id.Email },
	},
	{
		target: Target{Name: "domicile", Candidates: []Candidate{
			{Desc: "domicile input", CSS: "input[name*='domicile' i], input[name*='city' i]"},
			{Desc: "domisili input", CSS: "input[placeholder*='domisili' i], input[placeholder*='kota' i]"},
		}},
		value: func(id IdentityConfig) string { return id.Domicile },
	},
}

var phoneTarget = Target{Name: "phone", Candidates: []Candidate{
	{Desc: "tel type", CSS: "input[type='tel']"},
	{Desc: "phone name", CSS: "input[name*='phone' i], input[name*='telp' i], input[name*='hp' i]"},
	{Desc: "phone placeholder", CSS: "input[placeholder*='phone' i], input[placeholder*='telepon' i]"},
}}

var genderControlTarget = Target{Name: "gender control", Candidates: []Candidate{
	{Desc: "gender select", CSS: "select[name*='gender' i], select[name*='kelamin' i]"},
	{Desc: "gender group", CSS: "[class*='gender'] select, [name*='jenis_kelamin' i]"},
}}

var birthDateTarget = Target{Name: "birth date field", Candidates: []Candidate{
	{Desc: "date input", CSS: "input[name*='birth' i], input[name*='lahir' i]"},
	{Desc: "dob placeholder", CSS: "input[placeholder*='lahir' i], input[placeholder*='birth' i], input[placeholder*='date of birth' i]"},
}}

var termsTarget = Target{Name: "terms checkbox", Candidates: []Candidate{
	{Desc: "terms checkbox", CSS: "input[type='checkbox'][name*='term' i], input[type='checkbox'][name*='agree' i], input[type='checkbox'][name*='syarat' i]"},
	{Desc: "terms label area", CSS: "[class*='terms'] input[type='checkbox'], [class*='agreement'] input[type='checkbox']"},
}}

// fillForm populates whatever identity fields the current surface renders.
// Individual misses are warnings; the only hard requirement is the flow
// staying alive to continue to checkout.
func (f *Flow) fillForm(ctx context.Context) {
	id := f.config.Identity

	for _, field := range identityFields {
		v := field.value(id)
		if v == "" {
			continue
		}
		f.fillField(field.target, v)
		if ctx.Err() != nil {
			return
		}
	}

	f.fillPhone(id.Phone)
	f.pickGender(ctx, id.Gender)
	f.pickBirthDate(ctx, id.BirthDate)
	f.checkTerms()
}

func (f *Flow) fillField(t Target, value string) {
	el, ok := f.resolver.Resolve(t, fieldBudget)
	if !ok {
		f.log.Warnf("Form field %q not found; skipping", t.Name)
		return
	}
	if err := fillInput(el, value); err != nil {
		f.log.Warnf("Form field %q rejected input: %v", t.Name, err)
	}
}

// fillPhone writes the number, then reads it back: many phone widgets strip
// the leading zero when they prepend a country code, which is fine. Any
// other mismatch is flagged for the operator.
func (f *Flow) fillPhone(phone string) {
	if phone == "" {
		return
	}

	el, ok := f.resolver.Resolve(phoneTarget, fieldBudget)
	if !ok {
		f.log.Warnf("Form field %q not found; skipping", phoneTarget.Name)
		return
	}
	if err := fillInput(el, phone); err != nil {
		f.log.Warnf("Phone field rejected input: %v", err)
		return
	}

	got, err := el.Property("value")
	if err != nil {
		return
	}
	if !phoneValueMatches(phone, got.Str()) {
		f.log.Warnf("Phone field reads %q after typing %q; verify before paying", got.Str(), phone)
	}
}

// phoneValueMatches accepts the exact value or the same value with its
// leading zero stripped, which phone widgets commonly do.
func phoneValueMatches(want, got string) bool {
	if got == want {
		return true
	}
	if strings.HasPrefix(want, "0") && got == strings.TrimPrefix(want, "0") {
		return true
	}
	return false
}

// genderSpellings maps a canonical gender to the labels pages use for it,
// English and Indonesian, most explicit first.
func genderSpellings(gender string) []string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "m", "laki-laki", "pria", "l":
		return []string{"Male", "Laki-laki", "Pria", "M", "L"}
	case "female", "f", "perempuan", "wanita", "p":
		return []string{"Female", "Perempuan", "Wanita", "F", "P"}
	}
	return nil
}

// genderOrdinal is the positional fallback used when no spelling matched:
// option lists near-universally order male first, female second.
func genderOrdinal(gender string) int {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "m", "laki-laki", "pria", "l":
		return 0
	case "female", "f", "perempuan", "wanita", "p":
		return 1
	}
	return -1
}

func (f *Flow) pickGender(ctx context.Context, gender string) {
	if gender == "" {
		return
	}

	spellings := genderSpellings(gender)
	if spellings == nil {
		f.log.Warnf("Unrecognized gender value %q; skipping the field", gender)
		return
	}

	el, ok := f.resolver.Resolve(genderControlTarget, fieldBudget)
	if !ok {
		f.log.Warnf("Gender control not found; skipping")
		return
	}

	for _, s := range spellings {
		if err := el.Select([]string{s}, true, "text"); err == nil {
			return
		}
	}

	// No label matched this page's localization; fall back to position.
	ord := genderOrdinal(gender)
	options, err := el.Elements("option")
	if err != nil || ord < 0 {
		f.log.Warnf("Gender options unreadable; skipping")
		return
	}

	// Skip a leading placeholder option with no value.
	idx := ord
	if len(options) > 0 {
		if v, err := options[0].Property("value"); err == nil && v.Str() == "" {
			idx++
		}
	}
	if idx >= len(options) {
		f.log.Warnf("Gender select has %d options, cannot pick position %d", len(options), idx)
		return
	}

	f.log.Warnf("Gender labels unrecognized; selecting option %d positionally", idx+1)
	if err := clickElement(options[idx]); err != nil {
		f.log.Warnf("Gender positional selection failed: %v", err)
	}
	f.settle(ctx)
}

// parseBirthDate splits the configured YYYY-MM-DD date into the pieces the
// three-part picker wants.
func parseBirthDate(value string) (year, month, day int, err error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("birth date must be YYYY-MM-DD: %w", err)
	}
	return t.Year(), int(t.Month()), t.Day(), nil
}

var monthNames = [][]string{
	{"January", "Januari", "Jan"},
	{"February", "Februari", "Feb"},
	{"March", "Maret", "Mar"},
	{"April", "April", "Apr"},
	{"May", "Mei", "Mei"},
	{"June", "Juni", "Jun"},
	{"July", "Juli", "Jul"},
	{"August", "Agustus", "Agu"},
	{"September", "September", "Sep"},
	{"October", "Oktober", "Okt"},
	{"November", "November", "Nov"},
	{"December", "Desember", "Des"},
}

// pickBirthDate drives the three-part overlay picker: open the field, then
// select year, month and day in turn. Text match first, position second,
// skip with a warning third.
func (f *Flow) pickBirthDate(ctx context.Context, value string) {
	if value == "" {
		return
	}

	year, month, day, err := parseBirthDate(value)
	if err != nil {
		f.log.Warnf("Birth date %q unusable: %v", value, err)
		return
	}

	el, ok := f.resolver.Resolve(birthDateTarget, fieldBudget)
	if !ok {
		f.log.Warnf("Birth date field not found; skipping")
		return
	}

	// Plain text inputs take the value directly; overlay pickers need the
	// field opened first.
	if typ, err := el.Attribute("type"); err == nil && typ != nil && (*typ == "date" || *typ == "text") {
		if err := fillInput(el, value); err == nil {
			if got, err := el.Property("value"); err == nil && got.Str() != "" {
				return
			}
		}
	}

	if err := clickElement(el); err != nil {
		f.log.Warnf("Birth date field would not open: %v", err)
		return
	}
	f.settle(ctx)

	f.pickFromOverlay(ctx, "year", []string{fmt.Sprintf("%d", year)},
		"[class*='year'] li, [class*='year'] option, select[class*='year'] option",
		func(texts []string) int { return yearOrdinal(texts, year) })
	f.pickFromOverlay(ctx, "month", monthNames[month-1],
		"[class*='month'] li, [class*='month'] option, select[class*='month'] option",
		func([]string) int { return month - 1 })
	f.pickFromOverlay(ctx, "day", []string{fmt.Sprintf("%d", day), fmt.Sprintf("%02d", day)},
		"[class*='day'] li, [class*='day'] option, select[class*='day'] option",
		func([]string) int { return day - 1 })
}

// yearOrdinal is the positional fallback for the year list: read the list's
// direction and step from its first two numeric entries and project the
// wanted year onto a position. Returns -1 when the entries are not numeric.
func yearOrdinal(texts []string, year int) int {
	if len(texts) < 2 {
		return -1
	}
	first, err1 := strconv.Atoi(strings.TrimSpace(texts[0]))
	second, err2 := strconv.Atoi(strings.TrimSpace(texts[1]))
	if err1 != nil || err2 != nil {
		return -1
	}

	step := second - first
	if step == 0 {
		return -1
	}

	idx := (year - first) / step
	if (year-first)%step != 0 || idx < 0 || idx >= len(texts) {
		return -1
	}
	return idx
}

// pickFromOverlay selects one unit of the date picker. labels are tried as
// exact visible-text matches; fallbackIdx maps the entry texts to a
// zero-based positional choice (-1 to give up).
func (f *Flow) pickFromOverlay(ctx context.Context, kind string, labels []string, listCSS string, fallbackIdx func(texts []string) int) {
	els, err := f.page.Elements(listCSS)
	if err != nil || len(els) == 0 {
		f.log.Warnf("Birth date %s list not found; skipping", kind)
		return
	}

	texts := make([]string, len(els))
	for i, el := range els {
		text, err := el.Text()
		if err != nil {
			continue
		}
		texts[i] = strings.TrimSpace(text)
	}

	for i, text := range texts {
		for _, l := range labels {
			if strings.EqualFold(text, l) {
				if err := clickElement(els[i]); err != nil {
					f.log.Warnf("Birth date %s click failed: %v", kind, err)
				}
				f.settle(ctx)
				return
			}
		}
	}

	ordinal := fallbackIdx(texts)
	if ordinal >= 0 && ordinal < len(els) {
		f.log.Warnf("Birth date %s labels unrecognized; selecting position %d", kind, ordinal+1)
		if err := clickElement(els[ordinal]); err != nil {
			f.log.Warnf("Birth date %s positional click failed: %v", kind, err)
		}
		f.settle(ctx)
		return
	}

	f.log.Warnf("Birth date %s could not be selected; finish it manually", kind)
}

func (f *Flow) checkTerms() {
	el, ok := f.resolver.Probe(termsTarget)
	if !ok {
		return
	}
	if checked, err := el.Property("checked"); err == nil && checked.Bool() {
		return
	}
	if err := clickElement(el); err != nil {
		f.log.Warnf("Terms checkbox click failed: %v", err)
	}
}
