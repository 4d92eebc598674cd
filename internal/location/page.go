package location

// indexPage watches the phone's position and posts every fix back. Browsers
// only grant geolocation to secure origins, so open it over https or localhost.
const indexPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Guided Session Location</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 480px; margin: 0 auto; padding: 20px; }
        .status { padding: 12px; background: #e0e0e0; border-radius: 5px; margin: 10px 0; }
        .error { background: #f8d7da; }
        .active { background: #d4edda; }
        button { padding: 12px 24px; font-size: 16px; cursor: pointer; }
        #fix { font-family: monospace; font-size: 13px; }
    </style>
</head>
<body>
    <h1>Ubicación de la sesión</h1>
    <p>Mantén esta página abierta mientras corres.</p>
    <button id="start">Compartir ubicación</button>
    <div id="status" class="status">Sin iniciar</div>
    <div id="fix"></div>

    <script>
        const statusEl = document.getElementById('status');
        const fixEl = document.getElementById('fix');
        let watchId = null;

        function setStatus(text, cls) {
            statusEl.textContent = text;
            statusEl.className = 'status ' + (cls || '');
        }

        function post(path, body) {
            return fetch(path, {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(body)
            });
        }

        function onPosition(pos) {
            const sample = {
                lat: pos.coords.latitude,
                lng: pos.coords.longitude,
                timestamp: pos.timestamp,
                accuracy: pos.coords.accuracy
            };
            post('/api/position', sample)
                .then(r => r.json())
                .then(r => setStatus('Enviando (' + r.watchers + ' en escucha)', 'active'))
                .catch(() => setStatus('Sin conexión con la sesión', 'error'));
            fixEl.textContent = sample.lat.toFixed(5) + ', ' + sample.lng.toFixed(5) +
                ' ±' + Math.round(sample.accuracy) + ' m';
        }

        function onError(err) {
            post('/api/position/error', { code: err.code, message: err.message });
            setStatus('Error de ubicación: ' + err.message, 'error');
        }

        document.getElementById('start').addEventListener('click', () => {
            if (!('geolocation' in navigator)) {
                post('/api/position/error', { code: 0, message: 'geolocation not supported' });
                setStatus('Este navegador no permite la ubicación', 'error');
                return;
            }
            if (watchId !== null) {
                navigator.geolocation.clearWatch(watchId);
            }
            setStatus('Solicitando ubicación...');
            watchId = navigator.geolocation.watchPosition(onPosition, onError, {
                enableHighAccuracy: true,
                maximumAge: 0,
                timeout: 15000
            });
        });
    </script>
</body>
</html>
`
