package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/ui/style"
	"go.trai.ch/zerr"
)

// PinsList prints every pin of the project's registry.
func (a *App) PinsList(_ context.Context) error {
	project, err := a.loadProject()
	if err != nil {
		return err
	}
	registry, err := a.PinStore.Load(project.Pins.Lock, a.pinsOverride)
	if err != nil {
		return err
	}

	pins := registry.PinSet()
	rows := make([][]string, 0, len(pins))
	for _, name := range pins.Names() {
		p := pins[name]
		rows = append(rows, []string{name, p.Rev, p.Hash, p.FetchURL()})
	}

	_, err = fmt.Fprintln(a.out(), newTable([]string{"NAME", "REV", "HASH", "URL"}, rows))
	return err
}

// ParseLocator parses "github:owner/repo" or an http(s) tarball URL.
func ParseLocator(spec string) (domain.Locator, error) {
	if rest, ok := strings.CutPrefix(spec, domain.LocatorGitHub+":"); ok {
		owner, repo, ok := strings.Cut(rest, "/")
		if ok && owner != "" && repo != "" && !strings.Contains(repo, "/") {
			return domain.Locator{Type: domain.LocatorGitHub, Owner: owner, Repo: repo}, nil
		}
	}
	if strings.HasPrefix(spec, "https://") || strings.HasPrefix(spec, "http://") {
		return domain.Locator{Type: domain.LocatorTarball, URL: spec}, nil
	}
	return domain.Locator{}, zerr.With(zerr.Wrap(domain.ErrInvalidPin, "unsupported locator"), "locator", spec)
}

// PinsAdd fetches a source tree, records its hash and writes the lock file.
func (a *App) PinsAdd(ctx context.Context, name, locator, rev string) error {
	project, err := a.loadProject()
	if err != nil {
		return err
	}
	loc, err := ParseLocator(locator)
	if err != nil {
		return err
	}

	pin, err := a.PinStore.Add(ctx, project.Pins.Lock, domain.PinnedSource{Name: name, Locator: loc, Rev: rev})
	if err != nil {
		return err
	}
	a.Logger.Info(fmt.Sprintf("pinned %s %s", pin.String(), pin.Hash))
	return nil
}

// PinsVerify re-fetches the named pins, or every pin when names is empty, and
// compares them against the recorded hashes.
func (a *App) PinsVerify(ctx context.Context, names []string) error {
	project, err := a.loadProject()
	if err != nil {
		return err
	}
	registry, err := a.PinStore.Load(project.Pins.Lock, a.pinsOverride)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = registry.PinSet().Names()
	}

	var errs error
	for _, name := range names {
		pin, err := registry.Resolve(name)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if err := a.PinStore.Verify(ctx, pin); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		a.Logger.Info(fmt.Sprintf("%s %s", style.Check, pin.String()))
	}
	return errs
}

// PinsRemove deletes a pin from the lock file.
func (a *App) PinsRemove(_ context.Context, name string) error {
	project, err := a.loadProject()
	if err != nil {
		return err
	}
	if err := a.PinStore.Remove(project.Pins.Lock, name); err != nil {
		return err
	}
	a.Logger.Info(fmt.Sprintf("removed pin %s", name))
	return nil
}

func newTable(headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(style.Iris)
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
