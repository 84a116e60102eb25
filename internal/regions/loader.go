package regions

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadOrder reads a declared region list, one name per line. Blank lines and
// lines starting with # are skipped.
func LoadOrder(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only region list.
			_ = cerr
		}
	}()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: region list %s is empty", ErrInvalidRegionList, path)
	}
	return names, nil
}
