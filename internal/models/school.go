package models

// SchoolProfile holds the letterhead details printed on report cards.
type SchoolProfile struct {
	Name     string `db:"school_name" json:"name"`
	Email    string `db:"school_email" json:"email"`
	Motto    string `db:"school_motto" json:"motto"`
	Address  string `db:"school_address" json:"address"`
	Box      string `db:"school_box" json:"box"`
	Contacts string `db:"school_contacts" json:"contacts"`
	Logo     string `db:"school_logo" json:"logo"`
}
