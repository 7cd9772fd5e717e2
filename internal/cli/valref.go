package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pomdtr/vt/internal/api"
)

// valRef names a val as author/name. An empty author means the current user.
type valRef struct {
	Author string
	Name   string
}

// parseValRef accepts "name", "author/name", "author.name" and the same
// forms with a leading "@".
func parseValRef(raw string) (valRef, error) {
	ref := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	parts := strings.FieldsFunc(ref, func(r rune) bool { return r == '/' || r == '.' })
	if strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, ".") ||
		strings.HasSuffix(ref, "/") || strings.HasSuffix(ref, ".") {
		return valRef{}, fmt.Errorf("invalid val %q", raw)
	}

	switch len(parts) {
	case 1:
		return valRef{Name: parts[0]}, nil
	case 2:
		return valRef{Author: parts[0], Name: parts[1]}, nil
	default:
		return valRef{}, fmt.Errorf("invalid val %q: expected name, author/name or author.name", raw)
	}
}

// resolveAuthor fills in the current user for a bare name.
func (s *session) resolveAuthor(ctx context.Context, ref valRef) (valRef, error) {
	if ref.Author != "" {
		return ref, nil
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return ref, fmt.Errorf("resolve current user: %w", err)
	}
	ref.Author = user.Username
	return ref, nil
}

// lookupVal parses raw and fetches the val it names.
func (s *session) lookupVal(ctx context.Context, raw string) (*api.Val, error) {
	ref, err := parseValRef(raw)
	if err != nil {
		return nil, err
	}
	ref, err = s.resolveAuthor(ctx, ref)
	if err != nil {
		return nil, err
	}
	val, err := s.client.ValByAlias(ctx, ref.Author, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("val %s/%s: %w", ref.Author, ref.Name, err)
	}
	return val, nil
}
