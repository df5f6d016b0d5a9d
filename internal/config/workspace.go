package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

//go:embed workspace.default.yaml
var defaultWorkspace []byte

// LoadWorkspace reads a workspace seed from path, or the built-in demo seed when path is empty.
func LoadWorkspace(path string) (domain.WorkspaceSeed, error) {
	data := defaultWorkspace
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return domain.WorkspaceSeed{}, fmt.Errorf("read workspace file: %w", err)
		}
	}
	return ParseWorkspace(data)
}

func ParseWorkspace(data []byte) (domain.WorkspaceSeed, error) {
	var seed domain.WorkspaceSeed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return domain.WorkspaceSeed{}, fmt.Errorf("parse workspace: %w", err)
	}

	if len(seed.Employees) == 0 {
		return domain.WorkspaceSeed{}, fmt.Errorf("workspace has no employees")
	}
	seen := make(map[domain.EmployeeID]bool, len(seed.Employees))
	for i := range seed.Employees {
		e := &seed.Employees[i]
		if e.ID == "" || e.Name == "" {
			return domain.WorkspaceSeed{}, fmt.Errorf("employee %d needs an id and a name", i)
		}
		if seen[e.ID] {
			return domain.WorkspaceSeed{}, fmt.Errorf("duplicate employee id %q", e.ID)
		}
		seen[e.ID] = true
		for _, k := range e.Tools {
			if !k.Valid() {
				return domain.WorkspaceSeed{}, fmt.Errorf("employee %s lists unknown tool %q", e.ID, k)
			}
		}
		e.Morale = domain.ClampMorale(e.Morale)
	}
	return seed, nil
}
