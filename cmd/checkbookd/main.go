package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/coin"
	"github.com/iov-one/checkbook/config"
	"github.com/iov-one/checkbook/crypto"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/x/blankcheck"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	flagConfig = "config"
	varConfig  *string
)

func init() {
	defaultConfig := filepath.Join(os.ExpandEnv("$HOME"), ".checkbook", "config.toml")
	varConfig = flag.String(flagConfig, defaultConfig, "configuration file")

	flag.CommandLine.Usage = helpMessage
}

func helpMessage() {
	fmt.Println("checkbookd")
	fmt.Println("          Blank check redemption service")
	fmt.Println("")
	fmt.Println("help      Print this message")
	fmt.Println("init      Write a configuration file")
	fmt.Println("start     Run the HTTP API server")
	fmt.Println("keygen    Generate a secp256k1 key and print its address")
	fmt.Println("derive    Print the account of signers read as JSON from stdin")
	fmt.Println("issue     Credit a cash asset: issue <asset> <address> <amount>")
	fmt.Println("mint      Create a token: mint <asset> <token id hex> <owner>")
	fmt.Println("version   Print the app version")
	fmt.Println(`
  -config string
        configuration file (default "$HOME/.checkbook/config.toml")`)
}

func main() {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "checkbookd")

	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	var err error
	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = initCmd(*varConfig, rest)
	case "start":
		err = startCmd(logger, *varConfig)
	case "keygen":
		err = keygenCmd(os.Stdout)
	case "derive":
		err = deriveCmd(*varConfig, os.Stdin, os.Stdout)
	case "issue":
		err = issueCmd(*varConfig, rest)
	case "mint":
		err = mintCmd(*varConfig, rest)
	case "version":
		fmt.Println(checkbook.Version())
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		helpMessage()
		os.Exit(1)
	}
}

// initCmd writes the default configuration, bound to the custodian given
// with the -custodian flag.
func initCmd(path string, args []string) error {
	fl := flag.NewFlagSet("init", flag.ExitOnError)
	custodianFl := fl.String("custodian", "", "custodian address, a new one is generated if empty")
	homeFl := fl.String("home", "", "directory to store the state under")
	if err := fl.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return errors.Wrapf(errors.ErrDuplicate, "%s already exists", path)
	}

	conf := config.Default()
	if *homeFl != "" {
		conf.Home = *homeFl
	}
	if *custodianFl != "" {
		addr, err := checkbook.ParseAddress(*custodianFl)
		if err != nil {
			return errors.Wrap(err, "custodian")
		}
		conf.Custodian = addr
	} else {
		key, err := crypto.GenPrivKey()
		if err != nil {
			return err
		}
		conf.Custodian = key.Address()
	}
	if err := conf.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "config directory")
	}
	if err := os.MkdirAll(conf.Home, 0700); err != nil {
		return errors.Wrap(err, "home directory")
	}
	if err := conf.Write(path); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

func startCmd(logger log.Logger, path string) error {
	conf, err := config.Load(path)
	if err != nil {
		return err
	}
	level, err := log.AllowLevel(conf.LogLevel)
	if err != nil {
		return err
	}
	logger = log.NewFilter(logger, level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, conf)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              conf.HTTP,
		Handler:           NewRouter(app, logger.With("module", "http"), conf.Debug),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "bind", conf.HTTP, "custodian", conf.Custodian)
		errc <- srv.ListenAndServe()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return errors.Wrap(err, "http server")
	case sig := <-sigc:
		logger.Info("Shutting down", "signal", sig)
	}

	shutdownCtx, done := context.WithTimeout(ctx, 5*time.Second)
	defer done()
	return srv.Shutdown(shutdownCtx)
}

func keygenCmd(out io.Writer) error {
	key, err := crypto.GenPrivKey()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "private key: %s\naddress:     %s\n", hex.EncodeToString(key.Bytes()), key.Address())
	return err
}

// deriveCmd computes the account without opening the state, so it can be
// used while the server is running.
func deriveCmd(path string, in io.Reader, out io.Writer) error {
	conf, err := config.Load(path)
	if err != nil {
		return err
	}
	var req deriveRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := req.Threshold.Validate(); err != nil {
		return err
	}
	if err := req.Signers.Validate(req.Threshold); err != nil {
		return err
	}
	if err := req.AssetContract.Validate(); err != nil {
		return errors.Wrap(err, "asset contract")
	}
	account := blankcheck.DeriveAccount(req.Signers, req.Threshold, req.AssetContract, conf.Custodian)
	_, err = fmt.Fprintln(out, account)
	return err
}

func issueCmd(path string, args []string) error {
	if len(args) != 3 {
		return errors.Wrap(errors.ErrInput, "usage: issue <asset> <address> <amount>")
	}
	asset, err := checkbook.ParseAddress(args[0])
	if err != nil {
		return errors.Wrap(err, "asset")
	}
	addr, err := checkbook.ParseAddress(args[1])
	if err != nil {
		return errors.Wrap(err, "address")
	}
	amount, err := coin.ParseHumanFormat(args[2])
	if err != nil {
		return errors.Wrap(err, "amount")
	}
	return withApp(path, func(app *App) error {
		return app.Issue(asset, addr, amount)
	})
}

func mintCmd(path string, args []string) error {
	if len(args) != 3 {
		return errors.Wrap(errors.ErrInput, "usage: mint <asset> <token id hex> <owner>")
	}
	asset, err := checkbook.ParseAddress(args[0])
	if err != nil {
		return errors.Wrap(err, "asset")
	}
	id, err := hex.DecodeString(args[1])
	if err != nil {
		return errors.Wrap(errors.ErrInput, "token id must be hex encoded")
	}
	owner, err := checkbook.ParseAddress(args[2])
	if err != nil {
		return errors.Wrap(err, "owner")
	}
	return withApp(path, func(app *App) error {
		return app.Mint(asset, id, owner)
	})
}

// withApp opens the application state for the duration of fn. The server
// must not be running, as the state can be opened only once.
func withApp(path string, fn func(*App) error) error {
	conf, err := config.Load(path)
	if err != nil {
		return err
	}
	app, err := NewApp(context.Background(), conf)
	if err != nil {
		return err
	}
	if err := fn(app); err != nil {
		app.Close()
		return err
	}
	return app.Close()
}
