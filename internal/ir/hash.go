package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// domainPlan is the domain prefix for plan identity hashes. The version
// suffix enables future algorithm migration without colliding with old
// hashes.
const domainPlan = "rac/plan/v1"

// PlanHash computes a content-addressed identity for a rule set plus its
// execution order. The hash is stable across restarts given the same
// inputs, and is used to key run records and compiled-plan caches.
func PlanHash(vars []Variable, order []string) (string, error) {
	varNodes := make([]any, len(vars))
	for i, v := range vars {
		node, err := exprToJSON(v.Expr)
		if err != nil {
			return "", fmt.Errorf("plan hash: variable %q: %w", v.Path, err)
		}
		varNodes[i] = map[string]any{
			"path":   v.Path,
			"entity": v.Entity,
			"expr":   node,
		}
	}

	canonical, err := marshalCanonical(map[string]any{
		"variables": varNodes,
		"order":     order,
	})
	if err != nil {
		return "", fmt.Errorf("plan hash: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(domainPlan))
	h.Write([]byte{0x00}) // Null separator prevents domain/data ambiguity
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
