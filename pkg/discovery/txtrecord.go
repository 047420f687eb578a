package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/servolink/servolink-go/pkg/version"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeFeedTXT creates TXT records for a feed advertisement.
func EncodeFeedTXT(info *FeedInfo) TXTRecordMap {
	txt := make(TXTRecordMap)
	txt[TXTKeyVersion] = info.Version
	if info.Version == "" {
		txt[TXTKeyVersion] = version.Current
	}
	txt[TXTKeyProfile] = info.Profile
	txt[TXTKeyChannels] = strings.Join(info.Channels, ",")
	if info.Baud > 0 {
		txt[TXTKeyBaud] = strconv.Itoa(info.Baud)
	}
	return txt
}

// DecodeFeedTXT parses TXT records of a feed advertisement.
// Instance and Port are not part of the records and stay zero.
func DecodeFeedTXT(txt TXTRecordMap) (*FeedInfo, error) {
	info := &FeedInfo{}

	if v, ok := txt[TXTKeyVersion]; ok {
		if err := version.CheckCompatible(v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIncompatible, err)
		}
		info.Version = v
	}

	profile, ok := txt[TXTKeyProfile]
	if !ok || profile == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyProfile)
	}
	info.Profile = profile

	if ch := txt[TXTKeyChannels]; ch != "" {
		for _, name := range strings.Split(ch, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, fmt.Errorf("%w: empty channel name in %q", ErrInvalidTXTRecord, ch)
			}
			info.Channels = append(info.Channels, name)
		}
	}

	if b, ok := txt[TXTKeyBaud]; ok && b != "" {
		baud, err := strconv.Atoi(b)
		if err != nil || baud <= 0 {
			return nil, fmt.Errorf("%w: baud %q", ErrInvalidTXTRecord, b)
		}
		info.Baud = baud
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a sorted slice of
// "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return ErrEmptyInstanceName
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
