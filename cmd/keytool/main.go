// Command keytool generates master keys and seals hot wallet keys into
// enc: handles for the ledger server configuration.
//
//	keytool genmaster
//	CUSTODY_MASTER_KEY=... keytool seal < hot-wallet.key
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chainsafe/custody-ledger/pkg/keys"
)

var masterKeyEnv = flag.String("master-key-env", "CUSTODY_MASTER_KEY", "Environment variable holding the base64 master key")

func main() {
	flag.Parse()

	var err error
	switch flag.Arg(0) {
	case "genmaster":
		err = genMaster(os.Stdout)
	case "seal":
		err = seal(os.Stdin, os.Stdout)
	default:
		fmt.Fprintln(os.Stderr, "usage: keytool [-master-key-env NAME] genmaster|seal")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "keytool: %v\n", err)
		os.Exit(1)
	}
}

func genMaster(w io.Writer) error {
	key, err := keys.GenerateMasterKey()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, keys.MasterKeyToBase64(key))
	return err
}

func seal(r io.Reader, w io.Writer) error {
	raw := os.Getenv(*masterKeyEnv)
	if raw == "" {
		return fmt.Errorf("master key not set: env=%s", *masterKeyEnv)
	}
	masterKey, err := keys.MasterKeyFromBase64(raw)
	if err != nil {
		return err
	}
	cipher, err := keys.NewMasterKeyCipher(masterKey)
	if err != nil {
		return err
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimSpace(line)
	if secret == "" {
		return fmt.Errorf("empty secret on stdin")
	}

	sealed, err := cipher.Encrypt([]byte(secret))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, keys.SealedHandle(sealed))
	return err
}
