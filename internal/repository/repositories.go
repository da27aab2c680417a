package repository

import "github.com/alexanderramin/budgetops/internal/db"

// Repositories bundles every repository bound to one connection, typically
// the transaction handed out by a db.UnitOfWork.
type Repositories struct {
	Users              UserRepo
	Divisions          DivisionRepo
	CANs               CANRepo
	Shops              ProcurementShopRepo
	Agreements         AgreementRepo
	ServicesComponents ServicesComponentRepo
	BudgetLines        BudgetLineRepo
	ChangeRequests     ChangeRequestRepo
	Trackers           ProcurementTrackerRepo
	Actions            ProcurementActionRepo
	History            HistoryRepo
	OpsEvents          OpsEventRepo
	Notifications      NotificationRepo
}

// New binds every repository to conn.
func New(conn db.DBTX) *Repositories {
	return &Repositories{
		Users:              NewSQLUserRepo(conn),
		Divisions:          NewSQLDivisionRepo(conn),
		CANs:               NewSQLCANRepo(conn),
		Shops:              NewSQLProcurementShopRepo(conn),
		Agreements:         NewSQLAgreementRepo(conn),
		ServicesComponents: NewSQLServicesComponentRepo(conn),
		BudgetLines:        NewSQLBudgetLineRepo(conn),
		ChangeRequests:     NewSQLChangeRequestRepo(conn),
		Trackers:           NewSQLProcurementTrackerRepo(conn),
		Actions:            NewSQLProcurementActionRepo(conn),
		History:            NewSQLHistoryRepo(conn),
		OpsEvents:          NewSQLOpsEventRepo(conn),
		Notifications:      NewSQLNotificationRepo(conn),
	}
}
