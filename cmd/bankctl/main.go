// Command bankctl is a terminal front end for the bank portal API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/hongminglow/bank-portal/internal/client"
	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/models/dto"
)

const usage = `usage: bankctl [-api URL] [-session FILE] <command> [args]

commands:
  register -name N -phone P -aadhaar A -password PW [-type savings|current]
  login user|employee|admin -phone P -password PW
  logout
  me
  deposit AMOUNT
  withdraw AMOUNT
  transfer PHONE AMOUNT
  history
  users                      (employee)
  user ID                    (employee)
  employees                  (admin)
  create-employee -name N -phone P -aadhaar A -password PW   (admin)
  delete-employee ID         (admin)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bankctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	apiURL := fs.String("api", envOr("BANKCTL_API", "http://localhost:8080"), "API base URL")
	sessionPath := fs.String("session", envOr("BANKCTL_SESSION", defaultSessionPath()), "session file")
	timeout := fs.Duration("timeout", 15*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	data, err := loadSession(*sessionPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	expired := false
	c := client.New(*apiURL, client.NewSession(data),
		client.WithTimeout(*timeout),
		client.WithUnauthorizedHandler(func() { expired = true }),
	)

	cmd := &command{ctx: ctx, c: c, out: stdout, sessionPath: *sessionPath}
	err = cmd.dispatch(fs.Arg(0), fs.Args()[1:])
	if expired {
		if rmErr := removeSession(*sessionPath); rmErr != nil {
			fmt.Fprintln(stderr, rmErr)
		}
		fmt.Fprintln(stderr, "session expired, run bankctl login")
		return 1
	}
	if err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
			return 2
		}
		var apiErr *client.APIError
		switch {
		case errors.As(err, &apiErr):
			fmt.Fprintln(stderr, client.UserMessage(err))
		case errors.Is(err, client.ErrNetwork):
			fmt.Fprintf(stderr, "%s\n%v\n", client.GenericMessage, err)
		default:
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

type command struct {
	ctx         context.Context
	c           *client.Client
	out         io.Writer
	sessionPath string
}

func (cmd *command) dispatch(name string, args []string) error {
	switch name {
	case "register":
		return cmd.register(args)
	case "login":
		return cmd.login(args)
	case "logout":
		cmd.c.Logout()
		if err := removeSession(cmd.sessionPath); err != nil {
			return err
		}
		fmt.Fprintln(cmd.out, "logged out")
		return nil
	case "me":
		user, err := cmd.c.Profile(cmd.ctx)
		if err != nil {
			return err
		}
		printUsers(cmd.out, []models.User{user})
		return nil
	case "deposit", "withdraw":
		if len(args) != 1 {
			return errUsage
		}
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		var res dto.MutationResponse
		if name == "deposit" {
			res, err = cmd.c.Deposit(cmd.ctx, amount)
		} else {
			res, err = cmd.c.Withdraw(cmd.ctx, amount)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.out, "%s, balance %d\n", res.Message, res.Balance)
		return nil
	case "transfer":
		if len(args) != 2 {
			return errUsage
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		res, err := cmd.c.Transfer(cmd.ctx, args[0], amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.out, "sent %d to %s, balance %d\n", amount, res.Recipient, res.Balance)
		return nil
	case "history":
		txs, err := cmd.c.History(cmd.ctx)
		if err != nil {
			return err
		}
		printHistory(cmd.out, txs)
		return nil
	case "users":
		users, err := cmd.c.ListUsers(cmd.ctx)
		if err != nil {
			return err
		}
		printUsers(cmd.out, users)
		return nil
	case "user":
		if len(args) != 1 {
			return errUsage
		}
		user, err := cmd.c.GetUser(cmd.ctx, args[0])
		if err != nil {
			return err
		}
		printUsers(cmd.out, []models.User{user})
		return nil
	case "employees":
		employees, err := cmd.c.ListEmployees(cmd.ctx)
		if err != nil {
			return err
		}
		printEmployees(cmd.out, employees)
		return nil
	case "create-employee":
		return cmd.createEmployee(args)
	case "delete-employee":
		if len(args) != 1 {
			return errUsage
		}
		if err := cmd.c.DeleteEmployee(cmd.ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.out, "employee deleted")
		return nil
	default:
		return errUsage
	}
}

func (cmd *command) register(args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var req dto.RegisterRequest
	fs.StringVar(&req.Name, "name", "", "full name")
	fs.StringVar(&req.Phone, "phone", "", "10-digit phone")
	fs.StringVar(&req.Aadhaar, "aadhaar", "", "12-digit aadhaar")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.AccountType, "type", models.AccountSavings, "savings or current")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	user, err := cmd.c.Register(cmd.ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.out, "registered %s (%s), balance %d\n", user.Name, user.ID, user.Balance)
	return nil
}

func (cmd *command) login(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	role := models.Role(args[0])
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	phone := fs.String("phone", "", "phone")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}

	var (
		name string
		err  error
	)
	switch role {
	case models.RoleUser:
		var u models.User
		u, err = cmd.c.LoginUser(cmd.ctx, *phone, *password)
		name = u.Name
	case models.RoleEmployee:
		var e models.Employee
		e, err = cmd.c.LoginEmployee(cmd.ctx, *phone, *password)
		name = e.Name
	case models.RoleAdmin:
		var a models.Admin
		a, err = cmd.c.LoginAdmin(cmd.ctx, *phone, *password)
		name = a.Phone
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	if err := saveSession(cmd.sessionPath, cmd.c.Session().Snapshot()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.out, "logged in as %s (%s)\n", name, role)
	return nil
}

func (cmd *command) createEmployee(args []string) error {
	fs := flag.NewFlagSet("create-employee", flag.ContinueOnError)
	var req dto.CreateEmployeeRequest
	fs.StringVar(&req.Name, "name", "", "full name")
	fs.StringVar(&req.Phone, "phone", "", "10-digit phone")
	fs.StringVar(&req.Aadhaar, "aadhaar", "", "12-digit aadhaar")
	fs.StringVar(&req.Password, "password", "", "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	emp, err := cmd.c.CreateEmployee(cmd.ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.out, "created employee %s (%s)\n", emp.Name, emp.ID)
	return nil
}

func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a whole number", s)
	}
	return n, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
