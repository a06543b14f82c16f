package sqlassets

import _ "embed"

//go:embed schema/companies.sql
var CompaniesSQL string

//go:embed schema/users.sql
var UsersSQL string

//go:embed schema/user_invitations.sql
var UserInvitationsSQL string

//go:embed schema/activities.sql
var ActivitiesSQL string
