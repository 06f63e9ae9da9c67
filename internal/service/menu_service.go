package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"stockcount/internal/repository"

	"github.com/goccy/go-yaml"
)

//go:embed menus.yaml
var menuCatalogue []byte

// MenuItem is one navigation entry. Items without a permission are visible when any child is.
type MenuItem struct {
	Key        string     `yaml:"key" json:"key"`
	Label      string     `yaml:"label" json:"label"`
	Path       string     `yaml:"path" json:"path,omitempty"`
	Icon       string     `yaml:"icon" json:"icon,omitempty"`
	Permission string     `yaml:"permission" json:"-"`
	Children   []MenuItem `yaml:"children" json:"children,omitempty"`
}

// PermissionLookup resolves the permission codes of a role
type PermissionLookup interface {
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
}

type MenuService interface {
	GetMenu(ctx context.Context, role string) ([]MenuItem, error)
}

type menuService struct {
	perms PermissionLookup
	items []MenuItem
}

// NewMenuService parses the embedded menu catalogue
func NewMenuService(perms PermissionLookup) (MenuService, error) {
	items, err := parseMenus(menuCatalogue)
	if err != nil {
		return nil, err
	}
	return &menuService{perms: perms, items: items}, nil
}

func parseMenus(data []byte) ([]MenuItem, error) {
	var items []MenuItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse menu catalogue: %w", err)
	}
	return items, nil
}

func (s *menuService) GetMenu(ctx context.Context, role string) ([]MenuItem, error) {
	codes, err := s.perms.GetPermissionsByRoleName(ctx, role)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	granted := make(map[string]bool, len(codes))
	for _, c := range codes {
		granted[c] = true
	}
	return filterMenu(s.items, granted), nil
}

func filterMenu(items []MenuItem, granted map[string]bool) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if item.Permission != "" && !granted[item.Permission] {
			continue
		}
		hadChildren := len(item.Children) > 0
		item.Children = filterMenu(item.Children, granted)
		if item.Permission == "" && hadChildren && len(item.Children) == 0 {
			continue
		}
		if len(item.Children) == 0 {
			item.Children = nil
		}
		out = append(out, item)
	}
	return out
}
