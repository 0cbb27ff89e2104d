package upload

import (
	"fmt"
	"mime"
	"strings"

	"github.com/alexalbu001/iguanas-jewelry-admin/pkg/config"
	pkgerrors "github.com/alexalbu001/iguanas-jewelry-admin/pkg/errors"
)

// validateSource runs every pre-network check for one file: content type
// against the allow-list and size against the limit. A rejected file never
// reaches negotiation.
func validateSource(cfg config.UploadConfig, src Source) error {
	if strings.TrimSpace(src.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "file name required")
	}

	contentType, err := normalizeMimeType(src.ContentType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("%s has no usable content type", src.Name))
	}
	if !isAccepted(cfg.AcceptedMimeTypes, contentType) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s is %s, only %s are allowed", src.Name, contentType, humanReadableList(shortTypeNames(cfg.AcceptedMimeTypes))))
	}

	if src.Size < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s has a negative size", src.Name))
	}
	if src.Size > cfg.MaxFileBytes {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s is %d bytes, the limit is %d", src.Name, src.Size, cfg.MaxFileBytes))
	}

	return nil
}

func normalizeMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

func isAccepted(accepted []string, contentType string) bool {
	for _, candidate := range accepted {
		if strings.EqualFold(strings.TrimSpace(candidate), contentType) {
			return true
		}
	}
	return false
}

// shortTypeNames turns "image/jpeg" style types into the bare subtype for
// operator-facing messages.
func shortTypeNames(types []string) []string {
	seen := make(map[string]struct{}, len(types))
	names := make([]string, 0, len(types))
	for _, t := range types {
		name := t
		if idx := strings.IndexByte(t, '/'); idx >= 0 {
			name = t[idx+1:]
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}
