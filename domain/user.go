package domain

import "time"

// CREATE TABLE public.users (
//     id                    BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     email                 VARCHAR(255) UNIQUE NOT NULL,
//     password_hash         VARCHAR(255) NOT NULL,
//     full_name             VARCHAR(255) NOT NULL,
//     role                  VARCHAR(50) DEFAULT 'customer',
//     age_bin               VARCHAR(20),
//     preferred_categories  VARCHAR(500),
//     created_at            TIMESTAMPTZ DEFAULT NOW()
// );

type User struct {
	ID                  uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email               string    `gorm:"column:email;uniqueIndex" json:"email"`
	Password            string    `gorm:"column:password_hash" json:"-"`
	FullName            string    `gorm:"column:full_name" json:"full_name"`
	Role                string    `gorm:"column:role;default:customer" json:"role"`
	AgeBin              string    `gorm:"column:age_bin" json:"age_bin"`
	PreferredCategories string    `gorm:"column:preferred_categories" json:"preferred_categories"`
	CreatedAt           time.Time `gorm:"column:created_at" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// Age buckets used for cohort popularity and as the model's categorical
// feature. Order is the encoding: code = index + 1, unknown/empty = 0.
var AgeBins = []string{"18-25", "26-35", "36-45", "46-55", "56+"}

// AgeBinCode maps an age bucket label to its stable category code. The
// mapping is shared by training and serving so the encoding never skews.
func AgeBinCode(ageBin string) int {
	for i, b := range AgeBins {
		if b == ageBin {
			return i + 1
		}
	}
	return 0
}
