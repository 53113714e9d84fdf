package domain

// InstanceStatus is the surveillance state of a monitored instance.
type InstanceStatus string

// Instance statuses. Instances are never deleted, only deactivated.
const (
	StatusActive   InstanceStatus = "active"
	StatusInactive InstanceStatus = "inactive"
)

// MonitoredInstance is one externally-held trading account under
// surveillance. Corresponds to account_instances table in PostgreSQL.
type MonitoredInstance struct {
	InstanceID            string // PRIMARY KEY, deterministic hash
	AccountID             string // owning account
	EncryptedInvestorPass string // AES-256-GCM envelope, produced upstream
	Status                InstanceStatus
	CreatedAt             int64 // record creation timestamp (ms)
	UpdatedAt             int64 // last update timestamp (ms)
}

// ActiveInstance is a monitored instance joined with its parent account's
// platform identifiers, as returned by InstanceStore.ListActive.
type ActiveInstance struct {
	InstanceID            string
	AccountID             string
	Login                 string
	Server                string
	EncryptedInvestorPass string
}
