package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"morphire/internal/api"
	"morphire/internal/models"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	if errors.Is(err, errIdentityRequired) {
		lines = append(lines, "hint: pass --identity or set "+identityEnvKey+" to your wallet address.")
		return uniqueLines(lines)
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: set MORPHIRE_ACCESS to the server access passphrase.")
		case "invalid_transition":
			if hint := transitionHint(apiErr.Details); hint != "" {
				lines = append(lines, hint)
			}
		case "not_found":
			lines = append(lines, "hint: jobs are private to each identity; check --identity.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify MORPHIRE_API_URL points to a morphire server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase MORPHIRE_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a morphire server is running at MORPHIRE_API_URL.",
			"hint: start local server manually with: morphire srv",
		)
	}
	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

func transitionHint(details *api.TransitionDetails) string {
	if details == nil {
		return ""
	}
	if current, err := models.ParseJobStatus(details.Current); err == nil && models.IsTerminal(current) {
		return fmt.Sprintf("hint: %s is a final status.", current)
	}
	if len(details.Allowed) > 0 {
		return fmt.Sprintf("hint: a %s job can move to: %s.", details.Current, strings.Join(details.Allowed, ", "))
	}
	return ""
}
