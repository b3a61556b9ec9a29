// Package identity derives stable content-addressed identifiers for
// entities that have no natural primary key.
//
// Kindle highlights carry no identifier of their own, so the sync engine
// keys them by a checksum of their normalized text. The checksum is
// intentionally narrow and non-cryptographic: the expected cardinality
// is hundreds to low thousands of highlights per user, and a collision
// merely de-duplicates two identical-looking rows.
package identity
