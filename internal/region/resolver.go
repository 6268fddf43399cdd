// Package region maps postal codes to substore codes using static,
// locally configured rules. When no rule matches, callers fall back to
// server-side resolution during session bootstrap.
package region

import (
	"strings"

	"github.com/rkhanna/amulwatch/internal/config"
)

// Resolver evaluates the prioritized resolution chain:
// local rules (exact, longest prefix, range), then the explicit
// override, then the heuristic default. Pure; no network access.
type Resolver struct {
	rules    config.RegionRules
	override string
	fallback string
}

// New constructs a Resolver from the region configuration.
func New(cfg config.RegionConfig) *Resolver {
	return &Resolver{
		rules:    cfg.Rules,
		override: cfg.Override,
		fallback: cfg.Default,
	}
}

// Resolve returns the substore code for pin, or ok=false when the
// whole chain comes up empty and the caller should let the server
// resolve the raw pincode instead.
func (r *Resolver) Resolve(pin string) (string, bool) {
	pin = strings.TrimSpace(pin)

	if code, ok := r.resolveRules(pin); ok {
		return code, true
	}
	if r.override != "" {
		return r.override, true
	}
	if r.fallback != "" {
		return r.fallback, true
	}
	return "", false
}

// resolveRules applies the static rules in precedence order, first
// match wins.
func (r *Resolver) resolveRules(pin string) (string, bool) {
	if pin == "" {
		return "", false
	}

	if code, ok := r.rules.Exact[pin]; ok {
		return code, true
	}

	// Longest matching prefix wins; among equal-length prefixes the
	// first-registered rule wins, which is why rules are an ordered
	// slice rather than a map.
	best := -1
	var bestCode string
	for _, p := range r.rules.Prefixes {
		if p.Prefix == "" || !strings.HasPrefix(pin, p.Prefix) {
			continue
		}
		if len(p.Prefix) > best {
			best = len(p.Prefix)
			bestCode = p.Substore
		}
	}
	if best >= 0 {
		return bestCode, true
	}

	// Inclusive range membership, lexicographic bounds as configured.
	for _, rr := range r.rules.Ranges {
		if pin >= rr.From && pin <= rr.To {
			return rr.Substore, true
		}
	}

	return "", false
}
