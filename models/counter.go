package models

// Counter is a named monotonic integer sequence used to issue human-readable IDs.
type Counter struct {
	Name string `bson:"name" json:"name"`
	Seq  int64  `bson:"seq" json:"seq"`
}
