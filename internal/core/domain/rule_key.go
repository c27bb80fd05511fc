package domain

import (
	"encoding/hex"

	"go.trai.ch/zerr"
)

// RuleKeySize is the length of a rule key digest in bytes.
const RuleKeySize = 32

// RuleKey is a fixed-width digest identifying a rule's inputs. Equal keys mean the
// rule's outputs are interchangeable.
type RuleKey [RuleKeySize]byte

// ParseRuleKey decodes the hexadecimal form of a rule key.
func ParseRuleKey(s string) (RuleKey, error) {
	var k RuleKey
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != RuleKeySize {
		return k, zerr.With(ErrInvalidRuleKey, "key", s)
	}
	copy(k[:], b)
	return k, nil
}

// String returns the lowercase hexadecimal form of the key.
func (k RuleKey) String() string {
	return hex.EncodeToString(k[:])
}

// IsZero reports whether the key is unset.
func (k RuleKey) IsZero() bool {
	return k == RuleKey{}
}

// MarshalText implements encoding.TextMarshaler.
func (k RuleKey) MarshalText() ([]byte, error) {
	if k.IsZero() {
		return []byte{}, nil
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *RuleKey) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = RuleKey{}
		return nil
	}
	parsed, err := ParseRuleKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
