package discover

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/deploymenttheory/go-extfs/pkg/app"
)

// DateLayout is the accepted format of the modified-after and modified-before filters
const DateLayout = "2006-01-02"

// MaxResultsLimit bounds Request.MaxResults
const MaxResultsLimit = 10000

var sizeMultipliers = map[string]int64{
	"B":  1,
	"KB": 1024,
	"MB": 1024 * 1024,
	"GB": 1024 * 1024 * 1024,
	"TB": 1024 * 1024 * 1024 * 1024,
}

// Validate validates a discovery request
func (r *Request) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid image target", err)
	}

	if r.Path != "" && !strings.HasPrefix(r.Path, "/") {
		return app.NewError(app.ErrCodeInvalidInput, "search path must be absolute", nil)
	}

	if r.NameRegex != "" {
		if _, err := regexp.Compile(r.NameRegex); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid regex pattern", err)
		}
	}

	switch r.FileType {
	case "", "file", "dir", "symlink":
	default:
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("invalid file type %q (valid: file, dir, symlink)", r.FileType), nil)
	}

	var minSize, maxSize int64
	var err error
	if r.MinSize != "" {
		if minSize, err = ParseSize(r.MinSize); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid min-size format", err)
		}
	}
	if r.MaxSize != "" {
		if maxSize, err = ParseSize(r.MaxSize); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid max-size format", err)
		}
		if r.MinSize != "" && minSize > maxSize {
			return app.NewError(app.ErrCodeInvalidInput, "min-size is larger than max-size", nil)
		}
	}

	if r.ModifiedAfter != "" {
		if _, err := time.Parse(DateLayout, r.ModifiedAfter); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid date format for modified-after, use YYYY-MM-DD", err)
		}
	}
	if r.ModifiedBefore != "" {
		if _, err := time.Parse(DateLayout, r.ModifiedBefore); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid date format for modified-before, use YYYY-MM-DD", err)
		}
	}

	if r.MaxResults < 1 || r.MaxResults > MaxResultsLimit {
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("max results must be between 1 and %d", MaxResultsLimit), nil)
	}

	if r.NamePattern != "" && r.NameRegex != "" {
		return app.NewError(app.ErrCodeInvalidInput, "cannot specify both name pattern and regex", nil)
	}

	return nil
}

// splitSize separates a size string like "1.5 MB" into its number and unit
func splitSize(size string) (string, string) {
	size = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(size)), " ", "")
	for i, char := range size {
		if !(char >= '0' && char <= '9' || char == '.') {
			return size[:i], size[i:]
		}
	}
	return size, ""
}

// validateSizeFormat validates size format strings like "10MB", "1GB"
func validateSizeFormat(size string) error {
	if strings.TrimSpace(size) == "" {
		return fmt.Errorf("empty size")
	}

	numPart, unit := splitSize(size)
	if numPart == "" {
		return fmt.Errorf("no numeric value found")
	}
	if _, err := strconv.ParseFloat(numPart, 64); err != nil {
		return fmt.Errorf("invalid numeric value: %s", numPart)
	}
	if _, ok := sizeMultipliers[unit]; !ok {
		return fmt.Errorf("invalid size unit: %s (valid: B, KB, MB, GB, TB)", unit)
	}
	return nil
}

// ParseSize converts size string to bytes
func ParseSize(size string) (int64, error) {
	if err := validateSizeFormat(size); err != nil {
		return 0, err
	}
	numPart, unit := splitSize(size)
	value, _ := strconv.ParseFloat(numPart, 64)
	return int64(value * float64(sizeMultipliers[unit])), nil
}
