package models

// User roles
const (
	RoleAdmin   = "admin"   // May retrain the models
	RoleTrainer = "trainer" // May retrain the models
	RoleUser    = "user"    // Compose and browse only
)

// CanTrain checks if a role may replace the trained models
func CanTrain(role string) bool {
	return role == RoleAdmin || role == RoleTrainer
}
