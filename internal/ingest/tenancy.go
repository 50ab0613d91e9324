package ingest

import (
	"encoding/json"

	"invoice-dashboard/internal/records"
)

// orderedSet keeps distinct ids in first-seen order.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.items = append(s.items, id)
	return true
}

// tenancy holds the distinct parent identifiers referenced by a collection.
type tenancy struct {
	orgs    *orderedSet
	depts   *orderedSet
	users   *orderedSet
	deptOrg map[string]string
	userOrg map[string]string
}

func (t tenancy) firstOrg() string {
	if len(t.orgs.items) == 0 {
		return ""
	}
	return t.orgs.items[0]
}

// collectTenancy gathers organizations, departments and users (uploaders and
// assignees). Records whose identifiers cannot be read are left to fail later.
func collectTenancy(raws []json.RawMessage) tenancy {
	t := tenancy{
		orgs:    newOrderedSet(),
		depts:   newOrderedSet(),
		users:   newOrderedSet(),
		deptOrg: make(map[string]string),
		userOrg: make(map[string]string),
	}
	for _, raw := range raws {
		ref, err := records.DecodeRef(raw)
		if err != nil || ref.OrganizationID == "" {
			continue
		}
		t.orgs.add(ref.OrganizationID)
		if t.depts.add(ref.DepartmentID) {
			t.deptOrg[ref.DepartmentID] = ref.OrganizationID
		}
		if t.users.add(ref.UploadedByID) {
			t.userOrg[ref.UploadedByID] = ref.OrganizationID
		}
		if t.users.add(ref.AssignedToID) {
			t.userOrg[ref.AssignedToID] = ref.OrganizationID
		}
	}
	return t
}
