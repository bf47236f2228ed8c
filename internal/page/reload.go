package page

import (
	"fmt"
	"strconv"
	"time"
)

const reloadScriptTemplate = `(function () {
  var path = %s;
  var delay = %d;
  function connect() {
    var protocol = window.location.protocol === 'https:' ? 'wss:' : 'ws:';
    var ws = new WebSocket(protocol + '//' + window.location.host + path);
    ws.onmessage = function (event) {
      if (event.data === %s) {
        window.location.reload();
      }
    };
    ws.onclose = function () {
      setTimeout(connect, delay);
    };
  }
  connect();
})();`

// ReloadScript returns the client script that connects to upgradePath on the
// serving host, reloads the page when message arrives and reconnects after
// reconnectDelay when the connection drops.
func ReloadScript(upgradePath, message string, reconnectDelay time.Duration) string {
	return fmt.Sprintf(reloadScriptTemplate,
		strconv.Quote(upgradePath),
		reconnectDelay.Milliseconds(),
		strconv.Quote(message))
}
