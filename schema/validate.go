package schema

import "fmt"

// validate checks cross-property invariants Build cannot reject at the
// point of declaration: duplicate names, dangling links, and type
// mismatches within a same-property group.
func (b *Builder) validate() error {
	if b.entityCode == "" {
		return fmt.Errorf("schema: entity code must not be empty")
	}

	seen := make(map[string]PropertyID, len(b.props))
	for _, p := range b.props {
		if other, ok := seen[p.Name]; ok {
			return fmt.Errorf("schema: duplicate property name %q (ids %d and %d)", p.Name, other, p.ID)
		}
		seen[p.Name] = p.ID

		if p.Kind == KindDataset {
			if err := validateColumns(p.Name, p.Columns); err != nil {
				return err
			}
		}
		if p.Constraint != nil {
			if err := validateConstraint(p.Name, *p.Constraint); err != nil {
				return err
			}
		}
	}

	for _, g := range b.sameGroups {
		if err := validateSameGroup(b.props, g); err != nil {
			return err
		}
	}

	for _, d := range b.dsp {
		if err := validateDSP(b.props, d); err != nil {
			return err
		}
	}

	return nil
}

func validateColumns(datasetName string, cols []DataProperty) error {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c.Name] {
			return fmt.Errorf("schema: dataset %q: duplicate column name %q", datasetName, c.Name)
		}
		seen[c.Name] = true
		if c.Lookup != nil {
			if err := validateLookup(*c.Lookup); err != nil {
				return fmt.Errorf("schema: dataset %q column %q: %w", datasetName, c.Name, err)
			}
		}
		if c.Constraint != nil {
			if err := validateConstraint(c.Name, *c.Constraint); err != nil {
				return fmt.Errorf("schema: dataset %q column %q: %w", datasetName, c.Name, err)
			}
		}
	}
	return nil
}

func validateConstraint(propName string, c Constraint) error {
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		return fmt.Errorf("%q: constraint min %v exceeds max %v", propName, *c.Min, *c.Max)
	}
	for _, e := range c.Enum {
		if e == "" {
			return fmt.Errorf("%q: enum constraint declares an empty entry", propName)
		}
	}
	return nil
}

func validateLookup(l PropertyLookup) error {
	switch l.Kind {
	case LookupList:
		if len(l.Names) == 0 {
			return fmt.Errorf("list lookup declares no names")
		}
	case LookupDataset:
		if l.Entity == "" || l.KeyColumn == "" || l.DisplayColumn == "" {
			return fmt.Errorf("dataset lookup requires entity, key column and display column")
		}
	default:
		return fmt.Errorf("unknown lookup kind %d", l.Kind)
	}
	return nil
}

func validateSameGroup(props []DataProperty, g SameGroup) error {
	var dt DataType
	for i, id := range g.Properties {
		if int(id) < 0 || int(id) >= len(props) {
			return fmt.Errorf("schema: same-property group references unknown property id %d", id)
		}
		p := props[id]
		if p.Kind != KindField {
			return fmt.Errorf("schema: same-property group member %q is not a Field", p.Name)
		}
		if i == 0 {
			dt = p.DataType
		} else if p.DataType != dt {
			return fmt.Errorf("schema: same-property group mixes data types (%q is %s, expected %s)", p.Name, p.DataType, dt)
		}
	}
	return nil
}

func validateDSP(props []DataProperty, d DataSourcePriority) error {
	if int(d.Target) < 0 || int(d.Target) >= len(props) {
		return fmt.Errorf("schema: DSP target references unknown property id %d", d.Target)
	}
	for _, s := range d.Sources {
		if int(s) < 0 || int(s) >= len(props) {
			return fmt.Errorf("schema: DSP source references unknown property id %d", s)
		}
		if s == d.Target {
			return fmt.Errorf("schema: DSP target %d cannot be its own source", d.Target)
		}
	}
	return nil
}
