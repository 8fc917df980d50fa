package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the deterministic deduplication identity for a
// recurring alert condition. The source is a rule ID for engine-fired
// alerts, or a synthetic tag (e.g. "zabbix") for alarms ingested from
// external systems. An optional discriminator separates otherwise identical
// conditions, such as the interface label on anomaly alerts or the message
// of a webhook alarm.
//
// Identical inputs always yield the identical fingerprint; there is no time
// or randomness component.
func Fingerprint(source, tenantID, host string, discriminator ...string) string {
	parts := append([]string{source, tenantID, host}, discriminator...)
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}
