package adb

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"focusbridge/internal/platform"
)

const usageTimeLayout = "2006-01-02 15:04:05"

var (
	packageLinePattern = regexp.MustCompile(`^package=(\S+)`)
	lastTimeUsedField  = regexp.MustCompile(`lastTimeUsed="([^"]+)"`)
	userHeaderPattern  = regexp.MustCompile(`^user=(\d+)`)
)

// parseAppOpsMode reads the mode of op from `appops get` output.
// "No operations." means the op was never set and maps to ModeDefault.
func parseAppOpsMode(output, op string) (platform.PermissionMode, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if idx := strings.Index(line, op+":"); idx >= 0 {
			rest := strings.TrimSpace(line[idx+len(op)+1:])
			if semi := strings.IndexByte(rest, ';'); semi >= 0 {
				rest = rest[:semi]
			}
			return platform.ParsePermissionMode(rest), nil
		}
		if strings.HasPrefix(line, "No operations") {
			return platform.ModeDefault, nil
		}
		if strings.HasPrefix(line, "Error") || strings.HasPrefix(line, "Unknown") {
			return "", errors.New(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrap(err, "read appops output")
	}
	return platform.ModeDefault, nil
}

// checkAMStart reports an error when `am start` printed one; adb shell
// exits zero even when the activity could not be started
func checkAMStart(output string) error {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Error") || strings.HasPrefix(line, "Exception") {
			return errors.New(line)
		}
	}
	return nil
}

// parsePackageList extracts identifiers from `pm list packages` output
func parsePackageList(output string) ([]string, error) {
	var pkgs []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "package:"):
			if pkg := strings.TrimSpace(strings.TrimPrefix(line, "package:")); pkg != "" {
				pkgs = append(pkgs, pkg)
			}
		case strings.HasPrefix(line, "Error"), strings.HasPrefix(line, "Failure"):
			return nil, errors.Errorf("pm list packages: %s", line)
		}
	}
	return pkgs, nil
}

// parseDeviceOffset converts `date +%z` output such as "+0530" into a zone
func parseDeviceOffset(output string) (*time.Location, error) {
	s := strings.TrimSpace(output)
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return nil, errors.Errorf("unexpected device offset %q", s)
	}
	hours, err := strconv.Atoi(s[1:3])
	if err != nil {
		return nil, errors.Wrapf(err, "device offset %q", s)
	}
	minutes, err := strconv.Atoi(s[3:5])
	if err != nil {
		return nil, errors.Wrapf(err, "device offset %q", s)
	}

	seconds := hours*3600 + minutes*60
	if s[0] == '-' {
		seconds = -seconds
	}
	return time.FixedZone(s, seconds), nil
}

// parseCurrentUser reads the user id printed by `am get-current-user`
func parseCurrentUser(output string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil || id < 0 {
		return 0, errors.Errorf("unexpected current user %q", strings.TrimSpace(output))
	}
	return id, nil
}

// parseDailyUsageStats reads the package lines of the "In-memory daily
// stats" section belonging to userID. Sections of other users, and weekly,
// monthly and yearly sections, are skipped. Output without user headers is
// read as a single user.
func parseDailyUsageStats(output string, loc *time.Location, userID int) ([]platform.UsageRecord, error) {
	var (
		records []platform.UsageRecord
		inDaily bool
		inUser  = true
	)

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if user := userHeaderPattern.FindStringSubmatch(line); user != nil {
			id, _ := strconv.Atoi(user[1])
			inUser = id == userID
			inDaily = false
			continue
		}
		if !inUser {
			continue
		}
		if strings.HasPrefix(line, "In-memory ") {
			inDaily = strings.HasPrefix(line, "In-memory daily stats")
			continue
		}
		if !inDaily {
			continue
		}

		match := packageLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		used := lastTimeUsedField.FindStringSubmatch(line)
		if used == nil {
			continue
		}

		ts, err := time.ParseInLocation(usageTimeLayout, used[1], loc)
		if err != nil {
			return nil, errors.Wrapf(err, "lastTimeUsed for %s", match[1])
		}
		records = append(records, platform.UsageRecord{
			PackageName:  match[1],
			LastTimeUsed: ts.UnixMilli(),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read usagestats output")
	}
	return records, nil
}
