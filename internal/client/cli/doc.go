// Package cli implements the key client's commands:
//
//	client [-c file] [-server URL] [-timeout d] register -email E
//	client [-c file] [-server URL] [-timeout d] login -email E
//	client [-c file] [-server URL] [-timeout d] fetch (-email E | -token T)
//
// Passwords are always read from the terminal without echo.
package cli
