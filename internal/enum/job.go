package enum

type JobStatus string

const (
	JobStatusSuccess JobStatus = "Success"
	JobStatusFailure JobStatus = "Failure"
)

func (t JobStatus) String() string {
	return string(t)
}

type UserRole string

const (
	UserRoleAdmin      UserRole = "Admin"
	UserRoleTechnician UserRole = "Technician"
	UserRoleClient     UserRole = "Client"
)

func (t UserRole) String() string {
	return string(t)
}
