package models

// ChildProfile represents the subject of all records logged by one identity.
type ChildProfile struct {
	Identity  string  `bson:"_id" json:"identity"`
	Name      string  `bson:"name" json:"name"`
	Gender    string  `bson:"gender,omitempty" json:"gender,omitempty"`
	BirthDate string  `bson:"birthDate,omitempty" json:"birthDate,omitempty"` // YYYY-MM-DD
	HeightCM  float64 `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	WeightKG  float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	CreatedAt int64   `bson:"createdAt" json:"createdAt"`
}
