// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Settings

	flag          env                   default
	-p            PORT                  3318
	-d            DATABASE_URL          file:quorum.db (sqlite only)
	-t            DATABASE_TYPE         sqlite
	-admin-salt   ADMIN_KEY_SALT        required
	-instance     INSTANCE_NAME         quorum
	-db-attempts  DB_CONNECT_ATTEMPTS   5

CLI flags take precedence over environment variables. main loads a .env file
into the environment before parsing.

# Validation

All problems are collected into one *multierror.Error, so a misconfigured
deployment sees every missing setting on the first start.
*/
package cliparse
