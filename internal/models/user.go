package models

// User roles.
const (
	RoleShipper = "shipper"
	RoleCarrier = "carrier"
	RoleAdmin   = "admin"
)

// User struct matches the document in MongoDB.
type User struct {
	UserID   string `bson:"userID" json:"userID"`
	Email    string `bson:"email" json:"email"`
	Name     string `bson:"name" json:"name"`
	Phone    string `bson:"phone,omitempty" json:"phone"`
	Password string `bson:"password" json:"-"`
	Role     string `bson:"role" json:"role"`
	Status   string `bson:"status" json:"status"` // active, suspended
}
