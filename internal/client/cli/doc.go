// Package cli provides the streamkeeper command-line client.
//
// Invoked with a subcommand (for example "streamkeeper list") it runs that
// one command and exits; without one it starts an interactive REPL. The
// login token is kept in a small SQLite database under the state directory,
// so one-shot commands share the session established by "login".
//
// Commands: register, login, me, generate-key, stop, list, check-key <key>,
// logout, help, exit.
package cli
