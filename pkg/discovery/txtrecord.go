package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeCompanionTXT creates the companion's TXT records.
func EncodeCompanionTXT(info *CompanionInfo) TXTRecordMap {
	name := info.Name
	if name == "" {
		name = info.InstanceName
	}
	return TXTRecordMap{
		TXTKeyVersion: info.Version,
		TXTKeyName:    name,
	}
}

// DecodeCompanionTXT parses the companion's TXT records. The version is
// required; the name is optional.
func DecodeCompanionTXT(txt TXTRecordMap) (version, name string, err error) {
	version, ok := txt[TXTKeyVersion]
	if !ok || version == "" {
		return "", "", fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	return version, txt[TXTKeyName], nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameInvalid)
	}
	if len(name) > MaxInstanceNameLen {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInstanceNameInvalid, len(name), MaxInstanceNameLen)
	}
	return nil
}
