package reconcile

import (
	"strings"

	"github.com/warp/workforce-engine/canonical"
	"github.com/warp/workforce-engine/normalize"
)

// Sources are the raw fragments describing one person. Any may be nil.
type Sources struct {
	Individual map[string]any
	Employment map[string]any
	Directory  map[string]any
}

// personal fields: individual > employment > directory
func (s Sources) personal() []map[string]any {
	return nonNil(s.Individual, s.Employment, s.Directory)
}

// employment fields: employment > individual > directory
func (s Sources) terms() []map[string]any {
	return nonNil(s.Employment, s.Individual, s.Directory)
}

func nonNil(objs ...map[string]any) []map[string]any {
	out := objs[:0:0]
	for _, o := range objs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// pick returns the first fragment value read successfully, in precedence order.
func pick[T any](objs []map[string]any, read func(map[string]any) (T, bool)) (T, bool) {
	for _, o := range objs {
		if v, ok := read(o); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func field(keys ...string) func(map[string]any) (string, bool) {
	return func(o map[string]any) (string, bool) {
		s := normalize.LookupString(o, keys...)
		return s, s != ""
	}
}

// Employee builds the canonical record for id from its fragments.
func Employee(id string, src Sources) canonical.Employee {
	personal, terms := src.personal(), src.terms()
	if id == "" {
		id, _ = pick(personal, field("individual_id", "id"))
	}

	first, _ := pick(personal, field("first_name", "preferred_name"))
	middle, _ := pick(personal, field("middle_name"))
	last, _ := pick(personal, field("last_name"))
	email, _ := pick(personal, readEmail)

	title, _ := pick(terms, field("title", "job_title"))
	dept, _ := pick(terms, func(o map[string]any) (string, bool) { return normalize.NormalizeDepartment(o["department"]) })
	empType, _ := pick(terms, employmentType)
	manager, _ := pick(terms, managerID)
	active, ok := pick(terms, explicitActive)
	if !ok {
		active, ok = pick(terms, statusActive)
	}
	if !ok {
		active = true
	}
	start, _ := pick(terms, date("start_date"))
	end, _ := pick(terms, date("end_date"))
	income, _ := pick(terms, readIncome)
	loc, _ := pick(terms, func(o map[string]any) (*canonical.Location, bool) {
		l := normalize.NormalizeLocation(o["location"])
		return l, l != nil
	})

	return canonical.Employee{
		Individual: canonical.Individual{
			ID:         id,
			FirstName:  first,
			MiddleName: middle,
			LastName:   last,
			Email:      email,
		},
		Employment: canonical.Employment{
			IndividualID:   id,
			StartDate:      start,
			EndDate:        end,
			IsActive:       active,
			Title:          title,
			Department:     dept,
			EmploymentType: empType,
			ManagerID:      manager,
			Income:         income,
			Location:       loc,
		},
	}
}

// readEmail prefers the first entry of "emails" over a flat "email".
func readEmail(o map[string]any) (string, bool) {
	if list, ok := normalize.Array(o["emails"]); ok && len(list) > 0 {
		if first, ok := normalize.Object(list[0]); ok {
			if s := normalize.LookupString(first, "data", "address"); s != "" {
				return s, true
			}
		}
	}
	return field("email", "work_email")(o)
}

// employmentType reads "employment_type" or the nested {type, subtype} shape.
func employmentType(o map[string]any) (string, bool) {
	if s := normalize.LookupString(o, "employment_type"); s != "" {
		return s, true
	}
	if nested, ok := normalize.Object(o["employment"]); ok {
		s := normalize.LookupString(nested, "subtype", "type")
		return s, s != ""
	}
	return "", false
}

func managerID(o map[string]any) (string, bool) {
	switch normalize.KindOf(o["manager"]) {
	case normalize.KindObject:
		s := normalize.LookupString(o["manager"].(map[string]any), "id")
		return s, s != ""
	case normalize.KindString, normalize.KindNumericString:
		return normalize.String(o["manager"])
	}
	return field("manager_id")(o)
}

func explicitActive(o map[string]any) (bool, bool) {
	return normalize.Bool(o["is_active"])
}

func statusActive(o map[string]any) (bool, bool) {
	switch strings.ToLower(normalize.LookupString(o, "employment_status", "status")) {
	case "active", "pending", "leave", "on_leave":
		return true, true
	case "inactive", "terminated", "retired", "deceased":
		return false, true
	default:
		return false, false
	}
}

func date(key string) func(map[string]any) (*canonical.Date, bool) {
	return func(o map[string]any) (*canonical.Date, bool) {
		d := normalize.NormalizeDate(o, key)
		return d, d != nil
	}
}

func readIncome(o map[string]any) (*canonical.Income, bool) {
	obj, ok := normalize.Object(o["income"])
	if !ok {
		return nil, false
	}
	money := normalize.NormalizeMoney(obj)
	if money == nil {
		return nil, false
	}
	unit, _ := canonical.ParseIncomeUnit(normalize.LookupString(obj, "unit"))
	return &canonical.Income{Money: *money, Unit: unit}, true
}

// =============================================================================
// BATCH JOINS
// =============================================================================

// DirectoryEntry is one person listed by the directory endpoint.
type DirectoryEntry struct {
	ID  string
	Raw map[string]any
}

// Directory lists the people in a directory response. Entries without an id are dropped.
func Directory(raw any) ([]DirectoryEntry, []error) {
	frags, dropped := Fragments("directory", raw)
	entries := make([]DirectoryEntry, 0, len(frags))
	seen := make(map[string]bool, len(frags))
	for i, f := range frags {
		if f.IndividualID == "" {
			dropped = append(dropped, &canonical.FieldError{Kind: "directory", Index: i, Field: "id"})
			continue
		}
		if seen[f.IndividualID] {
			continue
		}
		seen[f.IndividualID] = true
		entries = append(entries, DirectoryEntry{ID: f.IndividualID, Raw: f.Body})
	}
	return entries, dropped
}

// Employees joins individual and employment responses by individual id, in
// order of first appearance.
func Employees(individuals, employments any) ([]canonical.Employee, []error) {
	var order []string
	sources := make(map[string]*Sources)
	var dropped []error

	collect := func(kind string, raw any, assign func(*Sources, map[string]any)) {
		frags, errs := Fragments(kind, raw)
		dropped = append(dropped, errs...)
		for i, f := range frags {
			if f.IndividualID == "" {
				dropped = append(dropped, &canonical.FieldError{Kind: kind, Index: i, Field: "individual_id"})
				continue
			}
			s, ok := sources[f.IndividualID]
			if !ok {
				s = &Sources{}
				sources[f.IndividualID] = s
				order = append(order, f.IndividualID)
			}
			assign(s, f.Body)
		}
	}
	collect("individual", individuals, func(s *Sources, b map[string]any) { s.Individual = b })
	collect("employment", employments, func(s *Sources, b map[string]any) { s.Employment = b })

	out := make([]canonical.Employee, 0, len(order))
	for _, id := range order {
		out = append(out, Employee(id, *sources[id]))
	}
	return out, dropped
}

// First returns the body of the first fragment in raw, or nil.
func First(kind string, raw any) (map[string]any, []error) {
	frags, dropped := Fragments(kind, raw)
	if len(frags) == 0 {
		return nil, dropped
	}
	return frags[0].Body, dropped
}
