package infra

import (
	"errors"
	"fmt"
	"os"

	"business_war/internal/domain"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of the content catalog.
type catalogFile struct {
	Items           []domain.ItemDef   `yaml:"items" validate:"min=1,dive"`
	Events          []domain.NewsEvent `yaml:"events" validate:"min=1,dive"`
	GovAcquisitions []domain.GovEvent  `yaml:"gov_acquisitions" validate:"dive"`
}

// LoadCatalog reads and validates the item/event catalog.
// milestoneGovID, when non-empty, must name a government event.
func LoadCatalog(path, milestoneGovID string) (*domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}
	return ParseCatalog(data, milestoneGovID)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte, milestoneGovID string) (*domain.Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &domain.ConfigError{Field: "catalog", Err: err}
	}
	if err := NewValidator().Validate(&f); err != nil {
		return nil, err
	}

	c := domain.NewCatalog(f.Items, f.Events, f.GovAcquisitions)
	if len(c.Items) != len(f.Items) {
		return nil, &domain.ConfigError{Field: "items", Err: errors.New("duplicate item id")}
	}
	if err := checkReferences(c, milestoneGovID); err != nil {
		return nil, err
	}
	return c, nil
}

// checkReferences makes sure every item id mentioned by the catalog exists.
func checkReferences(c *domain.Catalog, milestoneGovID string) error {
	known := func(field, id string) error {
		if id == "" {
			return nil
		}
		if _, ok := c.Item(id); !ok {
			return &domain.ConfigError{Field: field, Err: fmt.Errorf("%w: %s", domain.ErrUnknownItem, id)}
		}
		return nil
	}

	for _, it := range c.Items {
		for ing := range it.Recipe {
			if err := known("items."+it.ID+".recipe", ing); err != nil {
				return err
			}
		}
	}
	for i, ev := range c.Events {
		field := fmt.Sprintf("events[%d]", i)
		if ev.Type == domain.EventPriceMod || ev.Type == domain.EventTradeBan {
			if ev.Target == "" {
				return &domain.ConfigError{Field: field + ".target", Err: errors.New("required for " + string(ev.Type))}
			}
			if ev.Type == domain.EventPriceMod && !ev.PriceMult.IsPositive() {
				return &domain.ConfigError{Field: field + ".price_mult", Err: errors.New("must be positive")}
			}
		}
		if ev.Type == domain.EventDefenseCheck && ev.Penalty == "" {
			return &domain.ConfigError{Field: field + ".penalty", Err: errors.New("required for DEFENSE_CHECK")}
		}
		if err := known(field+".target", ev.Target); err != nil {
			return err
		}
		if err := known(field+".req_item", ev.ReqItem); err != nil {
			return err
		}
		if err := known(field+".params.material", ev.Params.Material); err != nil {
			return err
		}
	}
	for i, g := range c.GovEvents {
		field := fmt.Sprintf("gov_acquisitions[%d]", i)
		for _, t := range g.Targets {
			if err := known(field+".targets", t); err != nil {
				return err
			}
		}
		for item := range g.Limits {
			if err := known(field+".limits", item); err != nil {
				return err
			}
		}
	}
	if milestoneGovID != "" {
		if _, ok := c.GovEvent(milestoneGovID); !ok {
			return &domain.ConfigError{Field: "milestone_gov_id", Err: fmt.Errorf("no government event %q", milestoneGovID)}
		}
	}
	return nil
}
