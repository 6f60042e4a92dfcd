package store

type syntheticAccount struct {
	FirstName, LastName, Email string
}

// 固定演示名单，和前端演示数据保持一致
var syntheticAccounts = []syntheticAccount{
	{"John", "Smith", "john.smith@example.com"},
	{"Emma", "Johnson", "emma.johnson@example.com"},
	{"Michael", "Williams", "michael.williams@example.com"},
	{"Sarah", "Brown", "sarah.brown@example.com"},
	{"David", "Jones", "david.jones@example.com"},
	{"Lisa", "Garcia", "lisa.garcia@example.com"},
	{"James", "Miller", "james.miller@example.com"},
	{"Maria", "Davis", "maria.davis@example.com"},
	{"Robert", "Rodriguez", "robert.rodriguez@example.com"},
	{"Jennifer", "Martinez", "jennifer.martinez@example.com"},
	{"William", "Hernandez", "william.hernandez@example.com"},
	{"Patricia", "Lopez", "patricia.lopez@example.com"},
	{"Charles", "Gonzalez", "charles.gonzalez@example.com"},
	{"Linda", "Wilson", "linda.wilson@example.com"},
	{"Christopher", "Anderson", "christopher.anderson@example.com"},
	{"Barbara", "Thomas", "barbara.thomas@example.com"},
	{"Daniel", "Taylor", "daniel.taylor@example.com"},
	{"Susan", "Moore", "susan.moore@example.com"},
	{"Paul", "Jackson", "paul.jackson@example.com"},
	{"Karen", "Martin", "karen.martin@example.com"},
	{"Mark", "Lee", "mark.lee@example.com"},
	{"Nancy", "Perez", "nancy.perez@example.com"},
	{"Donald", "Thompson", "donald.thompson@example.com"},
	{"Betty", "White", "betty.white@example.com"},
	{"Steven", "Harris", "steven.harris@example.com"},
}
