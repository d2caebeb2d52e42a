package teamtemplate

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnknownTeamSize = errors.New("no team template for team size")
	ErrMisconfigured   = errors.New("team template misconfigured")
)

// Position is the positional role a slot plays for ability weighting.
type Position string

const (
	PositionDefense  Position = "defense"
	PositionMidfield Position = "midfield"
	PositionAttack   Position = "attack"
)

// Template is the positional layout of one team of a given size.
type Template struct {
	TeamSize    int
	Defenders   int
	Midfielders int
	Attackers   int
}

func (t Template) Validate() error {
	if t.TeamSize < 1 {
		return fmt.Errorf("%w: team size must be > 0", ErrMisconfigured)
	}
	if t.Defenders < 0 || t.Midfielders < 0 || t.Attackers < 0 {
		return fmt.Errorf("%w: negative position count for %dv%d", ErrMisconfigured, t.TeamSize, t.TeamSize)
	}
	if sum := t.Defenders + t.Midfielders + t.Attackers; sum != t.TeamSize {
		return fmt.Errorf("%w: %d+%d+%d=%d does not equal team size %d",
			ErrMisconfigured, t.Defenders, t.Midfielders, t.Attackers, sum, t.TeamSize)
	}
	return nil
}

func (t Template) String() string {
	return fmt.Sprintf("%d:%d/%d/%d", t.TeamSize, t.Defenders, t.Midfielders, t.Attackers)
}

// PositionOf maps a slot number to its role. Slot numbers beyond the team size
// wrap, so slot N+1 is treated like slot 1.
func PositionOf(slotNumber int, tpl Template) (Position, error) {
	if err := tpl.Validate(); err != nil {
		return "", err
	}
	if slotNumber < 1 {
		return "", fmt.Errorf("slot number must be >= 1, got %d", slotNumber)
	}

	idx := ((slotNumber - 1) % tpl.TeamSize) + 1
	switch {
	case idx <= tpl.Defenders:
		return PositionDefense, nil
	case idx <= tpl.Defenders+tpl.Midfielders:
		return PositionMidfield, nil
	default:
		return PositionAttack, nil
	}
}

// Catalog resolves team sizes to templates.
type Catalog struct {
	templates map[int]Template
}

func NewCatalog(templates ...Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[int]Template, len(templates))}
	for _, tpl := range templates {
		if err := tpl.Validate(); err != nil {
			return nil, err
		}
		c.templates[tpl.TeamSize] = tpl
	}
	return c, nil
}

// DefaultCatalog covers 5-a-side through 11-a-side.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultTemplates()...)
	if err != nil {
		panic(err)
	}
	return c
}

func DefaultTemplates() []Template {
	return []Template{
		{TeamSize: 5, Defenders: 2, Midfielders: 2, Attackers: 1},
		{TeamSize: 6, Defenders: 2, Midfielders: 2, Attackers: 2},
		{TeamSize: 7, Defenders: 2, Midfielders: 3, Attackers: 2},
		{TeamSize: 8, Defenders: 3, Midfielders: 3, Attackers: 2},
		{TeamSize: 9, Defenders: 3, Midfielders: 4, Attackers: 2},
		{TeamSize: 10, Defenders: 4, Midfielders: 4, Attackers: 2},
		{TeamSize: 11, Defenders: 4, Midfielders: 4, Attackers: 3},
	}
}

func (c *Catalog) Resolve(teamSize int) (Template, error) {
	tpl, ok := c.templates[teamSize]
	if !ok {
		return Template{}, fmt.Errorf("%w: %d", ErrUnknownTeamSize, teamSize)
	}
	if err := tpl.Validate(); err != nil {
		return Template{}, err
	}
	return tpl, nil
}

func (c *Catalog) Supports(teamSize int) bool {
	_, ok := c.templates[teamSize]
	return ok
}

func (c *Catalog) List() []Template {
	out := make([]Template, 0, len(c.templates))
	for _, tpl := range c.templates {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamSize < out[j].TeamSize })
	return out
}

// Merge returns a catalog where overrides replace templates of the same size.
func (c *Catalog) Merge(overrides ...Template) (*Catalog, error) {
	all := c.List()
	all = append(all, overrides...)
	return NewCatalog(all...)
}

// ParseTemplates reads "size:def/mid/att" items separated by commas.
func ParseTemplates(raw string) ([]Template, error) {
	out := make([]Template, 0)
	for _, part := range strings.Split(raw, ",") {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		sizeRaw, layout, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("invalid template %q, expected size:def/mid/att", item)
		}
		counts := strings.Split(layout, "/")
		if len(counts) != 3 {
			return nil, fmt.Errorf("invalid template %q, expected three position counts", item)
		}

		values := make([]int, 0, 4)
		for _, v := range append([]string{sizeRaw}, counts...) {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("invalid number in template %q: %w", item, err)
			}
			values = append(values, n)
		}

		tpl := Template{TeamSize: values[0], Defenders: values[1], Midfielders: values[2], Attackers: values[3]}
		if err := tpl.Validate(); err != nil {
			return nil, fmt.Errorf("template %q: %w", item, err)
		}
		out = append(out, tpl)
	}
	return out, nil
}
