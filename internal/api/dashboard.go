package api

// dashboardHTML is the minimal landing page served at the root path.
const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
    <title>eCFR Regulations API</title>
    <style>
        body { font-family: Arial; text-align: center; padding: 50px; background: #f5f5f5; }
        h1 { color: #333; }
        .links { margin-top: 30px; }
        a { display: inline-block; margin: 10px; padding: 15px 30px; background: #667eea; color: white; text-decoration: none; border-radius: 5px; }
        a:hover { background: #5568d3; }
    </style>
</head>
<body>
    <h1>eCFR Regulations API</h1>
    <p>Federal Regulation Size Tracking</p>
    <div class="links">
        <a href="/api/agencies">View Data</a>
        <a href="/api/stats">Statistics</a>
        <a href="/health">Health Check</a>
    </div>
</body>
</html>
`
