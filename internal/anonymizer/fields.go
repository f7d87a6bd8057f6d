package anonymizer

// fieldKind classifies a string field of a DataPackage.
type fieldKind int

const (
	employeeName fieldKind = iota
	projectName
	companyName
	opaqueID
	freeText
)

// walkFields calls fn for every identity, id and free-text field of p, in a
// fixed order. Measurement fields are never visited. fn receives a pointer so
// the same walk serves both collection (read) and rewriting (write).
func walkFields(p *DataPackage, fn func(kind fieldKind, field *string)) {
	fn(opaqueID, &p.Company.ID)
	fn(companyName, &p.Company.Name)

	for i := range p.Team {
		m := &p.Team[i]
		fn(opaqueID, &m.UserID)
		fn(employeeName, &m.Name)
	}
	for i := range p.Workload {
		w := &p.Workload[i]
		fn(opaqueID, &w.UserID)
		fn(employeeName, &w.UserName)
	}
	for i := range p.Vacations {
		v := &p.Vacations[i]
		fn(opaqueID, &v.UserID)
		fn(employeeName, &v.UserName)
	}
	for i := range p.Projects {
		pr := &p.Projects[i]
		fn(opaqueID, &pr.ProjectID)
		fn(projectName, &pr.ProjectName)
		fn(freeText, &pr.Description)
		for j := range pr.Contributors {
			c := &pr.Contributors[j]
			fn(opaqueID, &c.UserID)
			fn(employeeName, &c.UserName)
		}
	}
	for i := range p.Productivity {
		e := &p.Productivity[i]
		fn(opaqueID, &e.UserID)
		fn(employeeName, &e.UserName)
		fn(opaqueID, &e.ProjectID)
		fn(projectName, &e.ProjectName)
	}
	for i := range p.Contracts {
		c := &p.Contracts[i]
		fn(opaqueID, &c.ContractID)
		fn(opaqueID, &c.ProjectID)
		fn(projectName, &c.ProjectName)
		fn(freeText, &c.Title)
		fn(freeText, &c.ScopeDescription)
	}
}

// clonePackage returns a deep copy of p. Every slice reachable from p is
// reallocated, so writes through walkFields on the copy never reach p.
func clonePackage(p *DataPackage) *DataPackage {
	out := *p
	out.Team = cloneSlice(p.Team)
	out.Workload = cloneSlice(p.Workload)
	out.Vacations = cloneSlice(p.Vacations)
	out.Productivity = cloneSlice(p.Productivity)
	out.Contracts = cloneSlice(p.Contracts)
	out.Projects = cloneSlice(p.Projects)
	for i := range out.Projects {
		out.Projects[i].Contributors = cloneSlice(p.Projects[i].Contributors)
	}
	return &out
}

// cloneSlice copies a slice of value types, keeping nil as nil.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
