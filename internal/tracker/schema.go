// Package tracker holds the issue-tracker schema as an ordered upgrade list.
// Entries are only ever appended; the index of an entry is its identity.
package tracker

import (
	"github.com/tordrt/datadict/internal/dict"
	"github.com/tordrt/datadict/internal/migrate"
)

// DefaultTables is the physical naming of the tracker tables
var DefaultTables = migrate.TableNames{Prefix: "mantis", Suffix: "_table"}

// nullDate is the stored value of a date that was never set
const nullDate = "'1970-01-01 00:00:01'"

var tableOpts = dict.TableOptions{
	Dialect: map[string]string{"mysql": "ENGINE=InnoDB DEFAULT CHARSET=utf8"},
}

const bugHistoryFields = `
	id             I  UNSIGNED NOTNULL PRIMARY AUTOINCREMENT,
	user_id        I  UNSIGNED NOTNULL DEFAULT '0' INDEX idx_history_user_id,
	bug_id         I  UNSIGNED NOTNULL DEFAULT '0' INDEX idx_bug_history_bug_id,
	date_modified  T  NOTNULL DEFAULT ` + nullDate + `,
	field_name     C(32) NOTNULL DEFAULT '',
	old_value      C(255) NOTNULL DEFAULT '',
	new_value      C(255) NOTNULL DEFAULT '',
	type           I2 NOTNULL DEFAULT '0'`

func intColumn(name string) string {
	return name + " I UNSIGNED NOTNULL DEFAULT '1'"
}

// Steps returns the upgrade list
func Steps() []migrate.Step {
	return []migrate.Step{
		{Op: migrate.CreateTable{Table: "{config}", Options: tableOpts, Fields: `
			config_id   C(64) NOTNULL PRIMARY,
			project_id  I DEFAULT '0' PRIMARY,
			user_id     I DEFAULT '0' PRIMARY,
			access_reqd I DEFAULT '0',
			type        I DEFAULT '90',
			value       XL NOTNULL`}},
		{Op: migrate.CreateIndex{Index: "idx_config", Table: "{config}", Columns: []string{"config_id"}}},
		{Op: migrate.CreateTable{Table: "{bug_history}", Options: tableOpts, Fields: `
			id             I  UNSIGNED NOTNULL PRIMARY AUTOINCREMENT,
			user_id        I  UNSIGNED NOTNULL DEFAULT '0',
			bug_id         I  UNSIGNED NOTNULL DEFAULT '0',
			date_modified  T  NOTNULL DEFAULT ` + nullDate + `,
			field_name     C(32) NOTNULL DEFAULT '',
			old_value      C(128) NOTNULL DEFAULT '',
			new_value      C(128) NOTNULL DEFAULT '',
			type           I2 NOTNULL DEFAULT '0'`}},
		{Op: migrate.CreateIndex{Index: "idx_bug_history_bug_id", Table: "{bug_history}", Columns: []string{"bug_id"}}},
		{Op: migrate.CreateIndex{Index: "idx_history_user_id", Table: "{bug_history}", Columns: []string{"user_id"}}},
		/* 5 */
		{Op: migrate.CreateTable{Table: "{bug}", Options: tableOpts, Fields: `
			id              I  UNSIGNED PRIMARY NOTNULL AUTOINCREMENT,
			project_id      I  UNSIGNED NOTNULL DEFAULT '0',
			reporter_id     I  UNSIGNED NOTNULL DEFAULT '0',
			handler_id      I  UNSIGNED NOTNULL DEFAULT '0',
			priority        I2 NOTNULL DEFAULT '30',
			severity        I2 NOTNULL DEFAULT '50',
			status          I2 NOTNULL DEFAULT '10',
			resolution      I2 NOTNULL DEFAULT '10',
			category        C(64) NOTNULL DEFAULT '',
			date_submitted  T  NOTNULL DEFAULT ` + nullDate + `,
			last_updated    T  NOTNULL DEFAULT ` + nullDate + `,
			bug_text_id     I  UNSIGNED NOTNULL DEFAULT '0',
			summary         C(128) NOTNULL DEFAULT '',
			sticky          L  NOTNULL DEFAULT '0'`}},
		{Op: migrate.CreateIndex{Index: "idx_bug_status", Table: "{bug}", Columns: []string{"status"}}},
		{Op: migrate.CreateIndex{Index: "idx_project", Table: "{bug}", Columns: []string{"project_id"}}},
		{Op: migrate.CreateTable{Table: "{bug_text}", Options: tableOpts, Fields: `
			id                     I  PRIMARY UNSIGNED NOTNULL AUTOINCREMENT,
			description            XL NOTNULL,
			steps_to_reproduce     XL NOTNULL,
			additional_information XL NOTNULL`}},
		{Op: migrate.CreateTable{Table: "{bugnote}", Options: tableOpts, Fields: `
			id               I  UNSIGNED PRIMARY NOTNULL AUTOINCREMENT,
			bug_id           I  UNSIGNED NOTNULL DEFAULT '0',
			reporter_id      I  UNSIGNED NOTNULL DEFAULT '0',
			bugnote_text_id  I  UNSIGNED NOTNULL DEFAULT '0',
			view_state       I2 NOTNULL DEFAULT '10',
			date_submitted   T  NOTNULL DEFAULT ` + nullDate + `,
			last_modified    T  NOTNULL DEFAULT ` + nullDate}},
		/* 10 */
		{Op: migrate.CreateIndex{Index: "idx_bug", Table: "{bugnote}", Columns: []string{"bug_id"}}},
		{Op: migrate.CreateIndex{Index: "idx_last_mod", Table: "{bugnote}", Columns: []string{"last_modified"}}},
		{Op: migrate.CreateTable{Table: "{bugnote_text}", Options: tableOpts, Fields: `
			id    I  UNSIGNED NOTNULL PRIMARY AUTOINCREMENT,
			note  XL NOTNULL`}},
		{Op: migrate.CreateTable{Table: "{project}", Options: tableOpts, Fields: `
			id          I  UNSIGNED PRIMARY NOTNULL AUTOINCREMENT,
			name        C(128) NOTNULL DEFAULT '',
			status      I2 NOTNULL DEFAULT '10',
			enabled     L  NOTNULL DEFAULT '1',
			view_state  I2 NOTNULL DEFAULT '10',
			access_min  I2 NOTNULL DEFAULT '10',
			file_path   C(250) NOTNULL DEFAULT '',
			description XL NOTNULL`}},
		{Op: migrate.CreateIndex{Index: "idx_project_id", Table: "{project}", Columns: []string{"id"}}},
		/* 15 */
		{Op: migrate.CreateIndex{Index: "idx_project_name", Table: "{project}", Columns: []string{"name"},
			Options: dict.IndexOptions{Unique: true}}},
		{Op: migrate.CreateTable{Table: "{project_category}", Options: tableOpts, Fields: `
			project_id  I  UNSIGNED NOTNULL PRIMARY DEFAULT '0',
			category    C(64) NOTNULL PRIMARY DEFAULT '',
			user_id     I  UNSIGNED NOTNULL DEFAULT '0'`}},
		{Op: migrate.CreateTable{Table: "{user}", Options: tableOpts, Fields: `
			id                          I  UNSIGNED NOTNULL PRIMARY AUTOINCREMENT,
			username                    C(32) NOTNULL DEFAULT '',
			realname                    C(64) NOTNULL DEFAULT '',
			email                       C(64) NOTNULL DEFAULT '',
			password                    C(32) NOTNULL DEFAULT '',
			date_created                T  NOTNULL DEFAULT ` + nullDate + `,
			last_visit                  T  NOTNULL DEFAULT ` + nullDate + `,
			enabled                     L  NOTNULL DEFAULT '1',
			protected                   L  NOTNULL DEFAULT '0',
			access_level                I2 NOTNULL DEFAULT '10',
			login_count                 I  NOTNULL DEFAULT '0',
			lost_password_request_count I2 NOTNULL DEFAULT '0',
			failed_login_count          I2 NOTNULL DEFAULT '0',
			cookie_string               C(64) NOTNULL DEFAULT ''`}},
		{Op: migrate.CreateIndex{Index: "idx_user_cookie_string", Table: "{user}", Columns: []string{"cookie_string"},
			Options: dict.IndexOptions{Unique: true}}},
		{Op: migrate.CreateIndex{Index: "idx_user_username", Table: "{user}", Columns: []string{"username"},
			Options: dict.IndexOptions{Unique: true}}},
		/* 20 */
		{Op: migrate.UpdateFunction{Function: "do_nothing"}},
		{Op: migrate.AlterColumn{Table: "{bug_history}", TableFields: bugHistoryFields,
			Fields: "old_value C(255) NOTNULL DEFAULT '', new_value C(255) NOTNULL DEFAULT ''"}},
		{Op: migrate.AddColumn{Table: "{bug}", Fields: "target_version C(64) NOTNULL DEFAULT ''"}},
		{Op: migrate.CreateTable{Table: "{tag}", Options: tableOpts, Fields: `
			id            I  UNSIGNED NOTNULL PRIMARY AUTOINCREMENT,
			user_id       I  UNSIGNED NOTNULL DEFAULT '0',
			name          C(100) NOTNULL DEFAULT '' INDEX idx_tag_name UNIQUE,
			description   XL NOTNULL,
			date_created  T  NOTNULL DEFAULT ` + nullDate + `,
			date_updated  T  NOTNULL DEFAULT ` + nullDate}},
		{Op: migrate.CreateTable{Table: "{bug_tag}", Options: tableOpts, Fields: `
			bug_id         I  UNSIGNED NOTNULL PRIMARY DEFAULT '0',
			tag_id         I  UNSIGNED NOTNULL PRIMARY DEFAULT '0',
			user_id        I  UNSIGNED NOTNULL DEFAULT '0',
			date_attached  T  NOTNULL DEFAULT ` + nullDate}},
		/* 25 */
		{Op: migrate.CreateTable{Table: "{plugin}", Options: tableOpts, Fields: `
			basename  C(40) NOTNULL PRIMARY,
			enabled   L  NOTNULL DEFAULT '0'`}},
		{Op: migrate.CreateTable{Table: "{category}", Options: tableOpts, Fields: `
			id          I  UNSIGNED NOTNULL PRIMARY AUTOINCREMENT,
			project_id  I  UNSIGNED NOTNULL DEFAULT '0',
			user_id     I  UNSIGNED NOTNULL DEFAULT '0',
			name        C(128) NOTNULL DEFAULT '',
			status      I  UNSIGNED NOTNULL DEFAULT '0'`}},
		{Op: migrate.CreateIndex{Index: "idx_category_project_name", Table: "{category}",
			Columns: []string{"project_id", "name"}, Options: dict.IndexOptions{Unique: true}}},
		{Op: migrate.InsertData{Table: "{category}",
			Values: "( project_id, user_id, name, status ) VALUES ( '0', '0', 'General', '0' )"}},
		{Op: migrate.AddColumn{Table: "{bug}", Fields: "category_id I UNSIGNED NOTNULL DEFAULT '1'"}},
		/* 30 */
		{Op: migrate.UpdateFunction{Function: "category_migrate"}},
		{Op: migrate.DropColumn{Table: "{bug}", Columns: []string{"category"}}},
		{Op: migrate.DropTable{Table: "{project_category}"}},
		{
			Op:   migrate.CreateIndex{Index: "idx_project_id", Table: "{project}", Columns: []string{"id"}, Options: dict.IndexOptions{Drop: true}},
			When: migrate.IndexExists("{project}", "idx_project_id"),
		},
		{
			Op:   migrate.CreateIndex{Index: "idx_config", Table: "{config}", Columns: []string{"config_id"}, Options: dict.IndexOptions{Drop: true}},
			When: migrate.IndexExists("{config}", "idx_config"),
		},
		/* 35 */
		{Op: migrate.InsertData{Table: "{plugin}",
			Values: "( basename, enabled ) VALUES ( 'MantisCoreFormatting', '1' )"}},
		{Op: migrate.AddColumn{Table: "{bug}", Fields: "due_date T NOTNULL DEFAULT " + nullDate}},

		// dates become unix timestamps
		{Op: migrate.AddColumn{Table: "{bug}", Fields: intColumn("date_submitted_int")}},
		{Op: migrate.AddColumn{Table: "{bug}", Fields: intColumn("due_date_int")}},
		{Op: migrate.AddColumn{Table: "{bug}", Fields: intColumn("last_updated_int")}},
		/* 40 */
		{Op: migrate.UpdateFunction{Function: "date_migrate", Args: []string{
			"{bug}", "id", "date_submitted,due_date,last_updated", "date_submitted_int,due_date_int,last_updated_int"}}},
		{Op: migrate.DropColumn{Table: "{bug}", Columns: []string{"date_submitted"}}},
		{Op: migrate.RenameColumn{Table: "{bug}", Old: "date_submitted_int", New: "date_submitted", Fields: intColumn("date_submitted_int")}},
		{Op: migrate.DropColumn{Table: "{bug}", Columns: []string{"due_date"}}},
		{Op: migrate.RenameColumn{Table: "{bug}", Old: "due_date_int", New: "due_date", Fields: intColumn("due_date_int")}},
		/* 45 */
		{Op: migrate.DropColumn{Table: "{bug}", Columns: []string{"last_updated"}}},
		{Op: migrate.RenameColumn{Table: "{bug}", Old: "last_updated_int", New: "last_updated", Fields: intColumn("last_updated_int")}},
		{
			Op:   migrate.CreateIndex{Index: "idx_last_mod", Table: "{bugnote}", Columns: []string{"last_modified"}, Options: dict.IndexOptions{Drop: true}},
			When: migrate.IndexExists("{bugnote}", "idx_last_mod"),
		},
		{Op: migrate.AddColumn{Table: "{bugnote}", Fields: intColumn("last_modified_int")}},
		{Op: migrate.AddColumn{Table: "{bugnote}", Fields: intColumn("date_submitted_int")}},
		/* 50 */
		{Op: migrate.UpdateFunction{Function: "date_migrate", Args: []string{
			"{bugnote}", "id", "last_modified,date_submitted", "last_modified_int,date_submitted_int"}}},
		{Op: migrate.DropColumn{Table: "{bugnote}", Columns: []string{"last_modified"}}},
		{Op: migrate.RenameColumn{Table: "{bugnote}", Old: "last_modified_int", New: "last_modified", Fields: intColumn("last_modified_int")}},
		{Op: migrate.CreateIndex{Index: "idx_last_mod", Table: "{bugnote}", Columns: []string{"last_modified"}}},
		{Op: migrate.DropColumn{Table: "{bugnote}", Columns: []string{"date_submitted"}}},
		/* 55 */
		{Op: migrate.RenameColumn{Table: "{bugnote}", Old: "date_submitted_int", New: "date_submitted", Fields: intColumn("date_submitted_int")}},
		{Op: migrate.ChangeTable{Table: "{plugin}", Options: tableOpts, Fields: `
			basename   C(40) NOTNULL PRIMARY,
			enabled    L  NOTNULL DEFAULT '0',
			protected  L  NOTNULL DEFAULT '0',
			priority   I  UNSIGNED NOTNULL DEFAULT '3'`}},
	}
}
