package store

import "go.mongodb.org/mongo-driver/mongo/options"

// caseInsensitive is the collation used for every slug/name lookup that must
// match §4.2's case-insensitive uniqueness indices.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}
